package ragErrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	UnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	EmptyCorpus       Kind = "EMPTY_CORPUS"
	EmbeddingFailure  Kind = "EMBEDDING_FAILURE"
	RetrievalFailure  Kind = "RETRIEVAL_FAILURE"
	GenerationFailure Kind = "GENERATION_FAILURE"
	NotReady          Kind = "NOT_READY"
	InvalidConfig     Kind = "INVALID_CONFIG"
	NotFound          Kind = "NOT_FOUND"
)

// Error carries a Kind so callers can branch with errors.Is against the
// sentinels below, regardless of message or wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

var (
	ErrUnsupportedFormat = New(UnsupportedFormat, "document format is not supported", nil)
	ErrEmptyCorpus       = New(EmptyCorpus, "no text could be extracted from the documents", nil)
	ErrEmbeddingFailure  = New(EmbeddingFailure, "embedding capability failed", nil)
	ErrRetrievalFailure  = New(RetrievalFailure, "retrieval failed", nil)
	ErrGenerationFailure = New(GenerationFailure, "generation capability failed", nil)
	ErrNotReady          = New(NotReady, "no documents have been indexed for this session", nil)
	ErrInvalidConfig     = New(InvalidConfig, "invalid configuration", nil)
	ErrNotFound          = New(NotFound, "not found", nil)
)

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error onto the status code the api reports for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case EmptyCorpus:
		return http.StatusUnprocessableEntity
	case EmbeddingFailure, RetrievalFailure, GenerationFailure:
		return http.StatusBadGateway
	case NotReady:
		return http.StatusConflict
	case InvalidConfig:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Transient reports whether the same request may succeed if sent again.
func Transient(err error) bool {
	switch KindOf(err) {
	case EmbeddingFailure, RetrievalFailure, GenerationFailure:
		return true
	default:
		return false
	}
}
