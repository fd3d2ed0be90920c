package project

import "errors"

// ErrMissingProjectDB is returned by Load when a project directory has
// no POS file, a fatal error at load time.
var ErrMissingProjectDB = errors.New("project database not found")
