package store

import "errors"

// ErrNotFound is returned by Get-style lookups when the id is absent.
var ErrNotFound = errors.New("not found")
