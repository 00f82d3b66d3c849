package domain

import "errors"

var (
	// ErrParse: a locator, listing or detail page did not have the expected shape.
	ErrParse = errors.New("parse error")
	// ErrValidation: a derived identifier failed its format check. Always also ErrParse.
	ErrValidation = errors.New("validation error")
	// ErrTimeout: the source did not answer within the bounded wait.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound: the source explicitly reported absence (HTTP 404).
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey: insert hit an existing identifier.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnsupportedSite: the career site does not match the vendor's board pattern.
	ErrUnsupportedSite = errors.New("unsupported career site")
)
