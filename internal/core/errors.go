package core

import "errors"

// Sentinel errors returned by Service operations. Handlers match on these
// with errors.Is to choose a status code; MapError turns them into
// user-facing messages.
var (
	ErrPageNotFound  = errors.New("page not found")
	ErrTableNotFound = errors.New("table not found")
	ErrNoFile        = errors.New("no file provided")
	ErrFileTooLarge  = errors.New("file too large")
	ErrEmptyImport   = errors.New("import produced no tables")
	ErrPageFull      = errors.New("page has too many tables")
	ErrAIDisabled    = errors.New("cell generation is not configured")
)
