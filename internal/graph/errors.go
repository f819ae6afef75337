package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCyclicDependency     = errors.New("cyclic dependency")
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrDuplicateTask        = errors.New("duplicate task id")
	ErrInvalidDuration      = errors.New("invalid task duration")
)

// CyclicDependencyError names the tasks that form a dependency cycle.
type CyclicDependencyError struct {
	TaskIDs []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.TaskIDs) == 0 {
		return "cyclic dependency"
	}
	return fmt.Sprintf("cyclic dependency: %s -> %s", strings.Join(e.TaskIDs, " -> "), e.TaskIDs[0])
}

func (e *CyclicDependencyError) Is(target error) bool {
	return target == ErrCyclicDependency
}

// UnresolvedDependencyError reports a predecessor reference to a task that is
// not part of the table.
type UnresolvedDependencyError struct {
	TaskID  string
	Missing string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("unresolved dependency: task %s depends on unknown task %s", e.TaskID, e.Missing)
}

func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}
