package models

import "errors"

// Sentinel errors shared across the retrieval pipeline. Callers test with
// errors.Is; wrapping adds call-site detail.
var (
	ErrEmptyInput   = errors.New("input is empty")
	ErrEmptyQuery   = errors.New("query is empty")
	ErrInvalidLimit = errors.New("limit must not be negative")
	ErrNotFound     = errors.New("not found")
)
