package scheduler

import "errors"

// ErrReadOnly is returned by any mutating action when the owning project
// was opened read-only.
var ErrReadOnly = errors.New("project is read-only")

// ErrLaunchFailed is returned when a launcher produced no or an unknown
// job id.
var ErrLaunchFailed = errors.New("launch failed: no job id returned")

// ErrQueueSubmitFailed is returned when queue submission produced no job
// id.
var ErrQueueSubmitFailed = errors.New("queue submission failed: no job id returned")
