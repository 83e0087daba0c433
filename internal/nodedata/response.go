package nodedata

import (
	"encoding/json"
	"fmt"
)

// ResponseKind tags the outcome carried by an update response.
type ResponseKind int

const (
	// ResponseOK means the update was applied
	ResponseOK ResponseKind = iota
	// ResponseRemoteError means the node rejected the update
	ResponseRemoteError
	// ResponseRedirect means the update was applied and the node wants a URL opened
	ResponseRedirect
)

// String returns a human-readable name for the response kind
func (k ResponseKind) String() string {
	switch k {
	case ResponseOK:
		return "ok"
	case ResponseRemoteError:
		return "remote_error"
	case ResponseRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("ResponseKind(%d)", k)
	}
}

// Response is the decoded answer to an update.
type Response struct {
	Kind    ResponseKind
	Message string // set for ResponseRemoteError
	URL     string // set for ResponseRedirect
}

// DecodeResponse decodes an update response body. A truthy "error" field wins
// over a truthy "url" field. Bodies that are not a JSON object are parse
// errors.
func DecodeResponse(body []byte) (Response, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return Response{}, NewParseError("failed to parse update response", err)
	}
	if fields == nil {
		return Response{}, NewParseError("update response is not a JSON object", nil)
	}

	if v := fields["error"]; truthy(v) {
		return Response{Kind: ResponseRemoteError, Message: stringify(v)}, nil
	}
	if v := fields["url"]; truthy(v) {
		return Response{Kind: ResponseRedirect, URL: stringify(v)}, nil
	}
	return Response{Kind: ResponseOK}, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
