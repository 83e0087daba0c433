package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("NODECFG_URL=http://from-dotenv:5252\n"), 0600); err != nil {
		t.Fatal(err)
	}

	// Register cleanup for the variable godotenv is about to set
	t.Setenv(EnvURL, "")
	os.Unsetenv(EnvURL)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv(EnvURL); got != "http://from-dotenv:5252" {
		t.Errorf("%s = %q", EnvURL, got)
	}
}

func TestLoadEnvFile_ExistingWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("NODECFG_URL=http://from-dotenv:5252\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvURL, "http://from-shell:5252")

	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(EnvURL); got != "http://from-shell:5252" {
		t.Errorf("%s = %q, shell value should win", EnvURL, got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.SetNode("nas", "http://nas:5252")
	_, _ = reg.SetNode("pi", "http://pi:5252")
	_ = reg.SetDefaultNode("pi")

	tests := []struct {
		name       string
		flagURL    string
		nodeName   string
		env        string
		wantURL    string
		wantSource string
		wantErr    bool
	}{
		{"flag wins", "http://flag:1", "nas", "http://env:1", "http://flag:1", "flag", false},
		{"named node", "", "nas", "http://env:1", "http://nas:5252", "node", false},
		{"unknown node", "", "nope", "", "", "", true},
		{"env", "", "", "http://env:1", "http://env:1", "env", false},
		{"default node", "", "", "", "http://pi:5252", "default", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvURL, tt.env)

			got, err := reg.Resolve(tt.flagURL, tt.nodeName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.URL != tt.wantURL || got.Source != tt.wantSource {
				t.Errorf("Resolve() = %+v, want %s from %s", got, tt.wantURL, tt.wantSource)
			}
		})
	}
}

func TestResolve_NothingConfigured(t *testing.T) {
	t.Setenv(EnvURL, "")
	if _, err := NewRegistry().Resolve("", ""); err == nil {
		t.Error("Resolve() should fail with nothing configured")
	}
}
