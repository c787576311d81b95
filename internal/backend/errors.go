package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a failed backend interaction.
type Kind string

const (
	// KindNetwork means no response was received (dial failure, timeout, cancellation).
	KindNetwork Kind = "network"
	// KindServer means the backend answered with a 5xx status.
	KindServer Kind = "server"
	// KindClient means the backend answered with a 4xx status.
	KindClient Kind = "client"
	// KindValidation means the input was rejected before any request was issued.
	KindValidation Kind = "validation"
	// KindMalformed means a response arrived but its body could not be used.
	KindMalformed Kind = "malformed"
)

// User-facing messages for the fixed error kinds.
const (
	MessageNetwork    = "네트워크 연결을 확인해주세요."
	MessageServer     = "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	MessageGeneric    = "서버 오류가 발생했습니다."
	MessageValidation = "이메일 주소를 입력해주세요."
	MessageMalformed  = "콘텐츠 응답이 올바르지 않습니다."
)

// Error is the normalized failure returned by Client and the services built on it.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status > 0 {
		return fmt.Sprintf("backend: %s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Key returns the i18n message key for the kind. Client errors carry server text and have no key.
func (e *Error) Key() string {
	switch e.Kind {
	case KindNetwork:
		return "error.network"
	case KindServer:
		return "error.server"
	case KindValidation:
		return "error.validation"
	case KindMalformed:
		return "error.malformed"
	default:
		return ""
	}
}

// NewValidationError reports input rejected before any request.
func NewValidationError(message string) *Error {
	if message == "" {
		message = MessageValidation
	}
	return &Error{Kind: KindValidation, Message: message}
}

// NewMalformedError reports a response body that could not be used.
func NewMalformedError(err error) *Error {
	return &Error{Kind: KindMalformed, Message: MessageMalformed, Err: err}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Kind == kind
	}
	return false
}

// UserMessage returns the text to show for err, falling back to fallback for foreign errors.
func UserMessage(err error, fallback string) string {
	var bErr *Error
	if errors.As(err, &bErr) && bErr.Message != "" {
		return bErr.Message
	}
	return fallback
}
