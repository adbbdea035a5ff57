package planner

import (
	"github.com/pkg/errors"
)

//ErrInvariant is the root of all planner state consistency errors
var ErrInvariant = errors.New("Planner invariant violation")

var (
	//ErrUnknownTaskType indicates task type missing in the resource pool
	ErrUnknownTaskType = errors.Wrap(ErrInvariant, "Unknown task type")
	//ErrNotEligible indicates resource not eligible for the task type
	ErrNotEligible = errors.Wrap(ErrInvariant, "Resource not eligible")
	//ErrResourceBusy indicates start on a resource already executing a task
	ErrResourceBusy = errors.Wrap(ErrInvariant, "Resource busy")
	//ErrNoMatchingStart indicates completion without a recorded start
	ErrNoMatchingStart = errors.Wrap(ErrInvariant, "No matching start")
	//ErrNegativeDuration indicates completion earlier than start
	ErrNegativeDuration = errors.Wrap(ErrInvariant, "Completion before start")
	//ErrCandidateMismatch indicates working set and candidate table diverged
	ErrCandidateMismatch = errors.Wrap(ErrInvariant, "Candidate table out of sync")
)

//IsInvariant returns true if err is caused by a planner invariant violation
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariant)
}
