// Package apperr defines the failure taxonomy for the prediction pipeline
// and its mapping to HTTP statuses and stable client-facing messages.
// Internal causes stay attached for server-side logs but are never part of
// the client message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	EmptyPayload Kind = iota
	PayloadTooLarge
	UnsupportedContentType
	InvalidImage
	ImageTooLarge
	ModelUnavailable
	InferenceFailed
)

func (k Kind) String() string {
	switch k {
	case EmptyPayload:
		return "empty_payload"
	case PayloadTooLarge:
		return "payload_too_large"
	case UnsupportedContentType:
		return "unsupported_content_type"
	case InvalidImage:
		return "invalid_image"
	case ImageTooLarge:
		return "image_too_large"
	case ModelUnavailable:
		return "model_unavailable"
	case InferenceFailed:
		return "inference_failed"
	}
	return "unknown"
}

// Error carries a failure kind plus the internal cause. The cause is for
// logs only; clients see Message(kind).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps cause with a failure kind. cause may be nil.
func E(kind Kind, cause error) error {
	return &Error{Kind: kind, Err: cause}
}

// KindOf extracts the failure kind from err. Anything that is not an
// *Error collapses to InferenceFailed so unexpected errors never leak
// internal detail to the caller.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return InferenceFailed
}

// Status maps err to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case PayloadTooLarge, ImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case ModelUnavailable:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Message returns the stable client-facing message for err.
func Message(err error) string {
	switch KindOf(err) {
	case EmptyPayload:
		return "empty upload: no image data received"
	case PayloadTooLarge:
		return "uploaded image exceeds the size limit"
	case UnsupportedContentType:
		return "unsupported content type: expected an image upload"
	case InvalidImage:
		return "invalid or corrupted image file"
	case ImageTooLarge:
		return "image dimensions exceed the allowed pixel count"
	case ModelUnavailable:
		return "model inference function not available"
	}
	return "inference failed"
}
