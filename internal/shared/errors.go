package shared

import "errors"

var (
	// ErrUnauthorized indicates a request without a valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates a record absent within the caller's organization.
	// A record owned by another organization produces the same error so that
	// existence cannot be probed across tenants.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidStatus indicates a status value outside the document's workflow.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrReferentialIntegrity indicates a referenced record that does not exist
	// within the caller's organization.
	ErrReferentialIntegrity = errors.New("referenced record not found")
	// ErrDuplicateCode indicates a generated document code collided on insert.
	ErrDuplicateCode = errors.New("duplicate document code")
	// ErrValidation indicates a request payload that failed validation.
	ErrValidation = errors.New("validation failed")
)
