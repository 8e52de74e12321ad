package progress

import "errors"

var (
	// ErrModuleNotTracked means the module id is not part of the course
	// catalog this store was built with.
	ErrModuleNotTracked = errors.New("module is not tracked by the progress store")

	// ErrInvalidScore means a quiz score outside [0, 100] was submitted.
	ErrInvalidScore = errors.New("quiz score must be between 0 and 100")
)
