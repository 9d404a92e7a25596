package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string

	cause error
}

func (err *Error) Error() string {
	if err.cause != nil {
		return err.Message + ": " + err.cause.Error()
	}
	return err.Message
}

// Unwrap exposes the underlying store or index failure for logging. It is
// never rendered to the client.
func (err *Error) Unwrap() error {
	return err.cause
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	te.cause = err.cause
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Unauthorized returns a 401 error with the given message.
func Unauthorized(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnauthorized,
		Message:  msg,
		Code:     "unauthorized",
	}
}

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		HTTPCode: http.StatusForbidden,
		Message:  action + " is not allowed.",
		Code:     "forbidden",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		HTTPCode: http.StatusNotFound,
		Message:  resource + " not found.",
		Code:     "not_found",
	}
}

func Conflict(msg string) error {
	return &Error{
		HTTPCode: http.StatusConflict,
		Message:  msg,
		Code:     "conflict",
	}
}

// RetrievalError returns a 500 error for a failed read against the store or
// the search index. The cause is kept so the error handler can log it.
func RetrievalError(resource string, cause error) error {
	return &Error{
		HTTPCode: http.StatusInternalServerError,
		Message:  "Failed to retrieve " + resource + ".",
		Code:     "retrieval_error",
		cause:    cause,
	}
}

func FolderDepthLimit(maxDepth int) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("Folders can't be nested more than %d levels deep.", maxDepth),
		Code:     "folder_depth_limit",
	}
}

func FolderMaxChildren(maxChildren int) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("A folder can't contain more than %d subfolders.", maxChildren),
		Code:     "folder_max_children",
	}
}

func FileTypeInvalid(extension string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  fmt.Sprintf("File type %q is not supported.", extension),
		Code:     "file_type_invalid",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		HTTPCode: http.StatusUnsupportedMediaType,
		Message:  "Unsupported Media Type",
		Code:     "unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  fmt.Sprintf("Unknown Parameter %q", param),
		Code:     "unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  msg,
		Code:     "validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  msg,
		Code:     "validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Malformed Payload",
		Code:     "malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Request body can't be empty.",
		Code:     "empty_request_body",
	}
}
