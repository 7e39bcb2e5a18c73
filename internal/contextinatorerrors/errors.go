// Package contextinatorerrors defines the error taxonomy shared across the
// indexing pipeline and search API.
package contextinatorerrors

import "fmt"

// Code classifies an error into one of the pipeline's stages.
type Code string

const (
	Configuration Code = "configuration"
	Validation    Code = "validation"
	FileSystem    Code = "filesystem"
	Parsing       Code = "parsing"
	Embedding     Code = "embedding"
	VectorStore   Code = "vectorstore"
	Search        Code = "search"
)

// Error is a tagged error carrying a stage code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func ConfigurationError(format string, args ...any) *Error { return newf(Configuration, format, args...) }
func ValidationError(format string, args ...any) *Error    { return newf(Validation, format, args...) }
func FileSystemError(cause error, format string, args ...any) *Error {
	return wrap(FileSystem, cause, format, args...)
}
func ParsingError(cause error, format string, args ...any) *Error {
	return wrap(Parsing, cause, format, args...)
}
func EmbeddingError(format string, args ...any) *Error {
	return newf(Embedding, format, args...)
}
func EmbeddingErrorWrap(cause error, format string, args ...any) *Error {
	return wrap(Embedding, cause, format, args...)
}
func VectorStoreError(cause error, format string, args ...any) *Error {
	return wrap(VectorStore, cause, format, args...)
}
func SearchError(format string, args ...any) *Error { return newf(Search, format, args...) }
