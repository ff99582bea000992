package setu

import "errors"

var (
	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("setu: invalid configuration")

	// ErrQueryTooShort is returned when a query is below the minimum length.
	ErrQueryTooShort = errors.New("setu: query too short")

	// ErrNotReady is returned when the engine has not finished initializing.
	ErrNotReady = errors.New("setu: engine not ready")

	// ErrInsufficientText is returned when a document yields too little
	// usable text to audit.
	ErrInsufficientText = errors.New("setu: insufficient text extracted")
)
