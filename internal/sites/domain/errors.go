package domain

import "errors"

var (
	ErrNotFound      = errors.New("project not found")
	ErrAlreadyExists = errors.New("project already exists")
)

// ErrorCode classifies expected business-rule failures carried inside
// outcome values. Infrastructure failures map to CodeInternalError.
type ErrorCode string

const (
	CodeProjectNotFound      ErrorCode = "PROJECT_NOT_FOUND"
	CodeNameAlreadyExists    ErrorCode = "NAME_ALREADY_EXISTS"
	CodeConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"
	CodeMergeConflict        ErrorCode = "MERGE_CONFLICT"
	CodeUnsupportedVersion   ErrorCode = "UNSUPPORTED_VERSION"
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
)
