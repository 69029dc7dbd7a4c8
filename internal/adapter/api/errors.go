package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

// Error kinds.
const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindAuth is a 401 or 403.
	KindAuth
	// KindValidation is any other 4xx; its message is shown verbatim.
	KindValidation
	// KindServer is a 5xx; it is shown generically.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

const serverErrorMessage = "The server encountered an error. Please try again later."

// Error is a failed backend request.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("request failed with status code %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("request failed with status code %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// PublicMessage returns the text to show a user.
func (e *Error) PublicMessage() string {
	switch e.Kind {
	case KindNetwork:
		return "Network error. Check your connection and try again."
	case KindServer:
		return serverErrorMessage
	default:
		return e.Message
	}
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Message returns a human-readable description of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if msg := e.PublicMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func responseErrorFromBody(status int, body io.Reader) error {
	e := &Error{Status: status, Kind: kindFor(status)}

	var eb errorBody
	if raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes)); err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, &eb) == nil {
			e.Message = eb.Error
			if e.Message == "" {
				e.Message = eb.Message
			}
		}
	}
	return e
}

func kindFor(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
