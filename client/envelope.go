package client

import (
	"encoding/json"
	"fmt"

	autherrors "github.com/jrsteele09/go-delivery-auth/internal/errors"
)

// Shape names which envelope layout carried the access token
type Shape int

const (
	ShapeNone Shape = iota
	ShapeNested
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeNested:
		return "nested"
	case ShapeFlat:
		return "flat"
	}
	return "none"
}

// Envelope is an auth response body: either {data:{accessToken,user}} or
// {accessToken,user}.
type Envelope struct {
	Shape       Shape
	AccessToken string
	User        json.RawMessage
}

// EnvelopeError is returned when neither envelope shape holds an access token
type EnvelopeError struct {
	Err error
}

func (e *EnvelopeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", autherrors.ErrNoAccessToken, e.Err)
	}
	return autherrors.ErrNoAccessToken.Error()
}

func (e *EnvelopeError) Unwrap() []error {
	if e.Err != nil {
		return []error{autherrors.ErrNoAccessToken, e.Err}
	}
	return []error{autherrors.ErrNoAccessToken}
}

// DecodeEnvelope tries the nested shape first, then the flat one.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Envelope{}, &EnvelopeError{Err: err}
	}

	if raw, ok := top["data"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			if tok := stringField(nested, "accessToken"); tok != "" {
				return Envelope{Shape: ShapeNested, AccessToken: tok, User: nested["user"]}, nil
			}
		}
	}

	if tok := stringField(top, "accessToken"); tok != "" {
		return Envelope{Shape: ShapeFlat, AccessToken: tok, User: top["user"]}, nil
	}

	return Envelope{}, &EnvelopeError{}
}

// rotatedToken returns a top-level accessToken, the only place a rotated
// token is looked for on ordinary responses.
func rotatedToken(body []byte) string {
	var top map[string]json.RawMessage
	if json.Unmarshal(body, &top) != nil {
		return ""
	}
	return stringField(top, "accessToken")
}

func stringField(m map[string]json.RawMessage, key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}
