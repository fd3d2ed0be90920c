package lifecycle

import "errors"

// ErrStepFailed is the error captured on a protocol's ErrorMessage field
// when one of its steps raises during execution.
var ErrStepFailed = errors.New("step failed")
