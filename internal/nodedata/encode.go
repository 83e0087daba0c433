package nodedata

import (
	"encoding/json"
	"fmt"
	"net/url"
)

const (
	// ContentTypeJSON is used for updates to every node except Unraid
	ContentTypeJSON = "application/json"

	// ContentTypeForm is used for updates to Unraid nodes
	ContentTypeForm = "application/x-www-form-urlencoded;charset=UTF-8"

	// FormFieldCSRF carries the snapshot's UnraidToken
	FormFieldCSRF = "csrf_token"

	// FormFieldData carries the JSON-encoded update
	FormFieldData = "ts_data"

	// UpdateQueryKey marks a POST as a write rather than a read
	UpdateQueryKey = "up"
)

// EncodedUpdate is an update serialized for the wire.
type EncodedUpdate struct {
	ContentType string
	Body        []byte

	// Payload is the JSON update without any form wrapping or token
	Payload []byte
}

// EncodeUpdate serializes u for the node described by node. Unraid nodes get
// a form body with the CSRF token; all others get the JSON update directly.
func EncodeUpdate(u Update, node NodeData) (EncodedUpdate, error) {
	payload, err := json.Marshal(u)
	if err != nil {
		return EncodedUpdate{}, fmt.Errorf("failed to marshal update: %w", err)
	}

	if !node.IsUnraid {
		return EncodedUpdate{
			ContentType: ContentTypeJSON,
			Body:        payload,
			Payload:     payload,
		}, nil
	}

	form := url.Values{}
	form.Set(FormFieldCSRF, node.UnraidToken)
	form.Set(FormFieldData, string(payload))

	return EncodedUpdate{
		ContentType: ContentTypeForm,
		Body:        []byte(form.Encode()),
		Payload:     payload,
	}, nil
}
