package container

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a container. Creating is transient
// during bootstrap and never observable in a persisted record.
type Status string

const (
	Creating Status = "creating"
	Created  Status = "created"
	Running  Status = "running"
	Paused   Status = "paused"
	Stopped  Status = "stopped"
)

var (
	// ErrNotFound indicates no container record exists for the id.
	ErrNotFound = errors.New("container does not exist")

	// ErrExists indicates the id is already in use.
	ErrExists = errors.New("container already exists")

	// ErrInvalidState indicates a lifecycle command was attempted from
	// a state that forbids it. The record is left unchanged.
	ErrInvalidState = errors.New("invalid container state")
)

// transitions is the lifecycle graph. Stopped is terminal until delete.
var transitions = map[Status][]Status{
	Creating: {Created},
	Created:  {Running, Stopped},
	Running:  {Paused, Stopped},
	Paused:   {Running, Stopped},
	Stopped:  {},
}

// checkTransition validates a status change against the lifecycle graph.
func checkTransition(from, to Status) error {
	for _, s := range transitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidState, from, to)
}
