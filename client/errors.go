package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
)

// StatusError reports a response outside the 2xx range
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets 401s match autherrors.ErrUnauthorized
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return autherrors.ErrUnauthorized
	}
	return nil
}

func newStatusError(req *http.Request, resp *http.Response, body []byte) *StatusError {
	return &StatusError{
		Method:     req.Method,
		URL:        req.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Body:       body,
	}
}

// BackendMessage returns the message the backend put in the error body
// behind err, if any.
func BackendMessage(err error) (string, bool) {
	var statusErr *StatusError
	if !autherrors.As(err, &statusErr) || len(statusErr.Body) == 0 {
		return "", false
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(statusErr.Body, &body) != nil || body.Message == "" {
		return "", false
	}
	return body.Message, true
}
