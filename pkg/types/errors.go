package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode identifies the cause of a recoverable failure. Numeric values are
// stable across releases: validation codes are 1-3, storage codes 101-105.
type ErrorCode int

// Validation error codes.
const (
	MissingRequiredField ErrorCode = 1
	InvalidFieldFormat   ErrorCode = 2
	InvalidFieldValue    ErrorCode = 3
)

// Storage error codes.
const (
	FailedToCreateMemo  ErrorCode = 101
	FailedToUpdateMemo  ErrorCode = 102
	FailedToDeleteMemo  ErrorCode = 103
	FailedToGetMemo     ErrorCode = 104
	FailedToGetAllMemos ErrorCode = 105
)

// codeNames holds the symbolic name of every code. Messages are derived from
// these names, so the text must not be edited independently.
var codeNames = map[ErrorCode]string{
	MissingRequiredField: "MISSING_REQUIRED_FIELD",
	InvalidFieldFormat:   "INVALID_FIELD_FORMAT",
	InvalidFieldValue:    "INVALID_FIELD_VALUE",
	FailedToCreateMemo:   "FAILED_TO_CREATE_MEMO",
	FailedToUpdateMemo:   "FAILED_TO_UPDATE_MEMO",
	FailedToDeleteMemo:   "FAILED_TO_DELETE_MEMO",
	FailedToGetMemo:      "FAILED_TO_GET_MEMO",
	FailedToGetAllMemos:  "FAILED_TO_GET_ALL_MEMOS",
}

// codeMessages is the code → message lookup table, built once from codeNames.
var codeMessages = buildMessages(codeNames)

func buildMessages(names map[ErrorCode]string) map[ErrorCode]string {
	messages := make(map[ErrorCode]string, len(names))
	for code, name := range names {
		messages[code] = MessageFromName(name)
	}
	return messages
}

// MessageFromName derives the human-readable message for a symbolic code
// name: lower-cased, underscores replaced by spaces, first letter upper-cased.
// "FAILED_TO_GET_ALL_MEMOS" becomes "Failed to get all memos".
func MessageFromName(name string) string {
	lower := strings.ToLower(name)
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + strings.ReplaceAll(lower[1:], "_", " ")
}

// Value returns the numeric value of the code.
func (c ErrorCode) Value() int {
	return int(c)
}

// Name returns the symbolic name of the code, or an empty string for an
// unknown code.
func (c ErrorCode) Name() string {
	return codeNames[c]
}

// Message returns the human-readable message of the code.
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error code %d", int(c))
}

// IsValidation reports whether c belongs to the validation taxonomy.
func (c ErrorCode) IsValidation() bool {
	return c >= MissingRequiredField && c <= InvalidFieldValue
}

// IsStorage reports whether c belongs to the storage taxonomy.
func (c ErrorCode) IsStorage() bool {
	return c >= FailedToCreateMemo && c <= FailedToGetAllMemos
}

func (c ErrorCode) String() string {
	if name := c.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ErrorCodes returns every known code in ascending numeric order.
func ErrorCodes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(codeNames))
	for code := range codeNames {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ValidationError reports a client-caused failure on a single input field.
type ValidationError struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error // underlying conversion error, may be nil
}

// NewValidationError builds a ValidationError for field with the standard
// "Error in field [name]: message." text.
func NewValidationError(field string, code ErrorCode, err error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf("Error in field [%s]: %s.", field, code.Message()),
		Err:     err,
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StorageError reports a store-caused failure. Err is the low-level error
// raised by the underlying store.
type StorageError struct {
	Code ErrorCode
	Err  error
}

// NewStorageError wraps err with the given storage code.
func NewStorageError(code ErrorCode, err error) *StorageError {
	return &StorageError{Code: code, Err: err}
}

func (e *StorageError) Error() string {
	return e.Code.Message()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Memo lifecycle errors, wrapped in a StorageError when a caller hands the
// store a memo in the wrong state.
var (
	ErrNotDraft  = errors.New("memo is already persisted")
	ErrDraftMemo = errors.New("memo has not been persisted")
)
