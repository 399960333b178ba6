package process

import "fmt"

// BootstrapError is a fatal failure of the container bootstrap. When it
// is returned no container record has been persisted and the spawned
// process tree has been reaped. A failed bootstrap is never retried;
// the caller must issue a fresh create with a fresh identifier.
type BootstrapError struct {
	Stage string
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap failed at %s: %v", e.Stage, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }
