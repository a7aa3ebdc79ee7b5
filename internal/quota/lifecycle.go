package quota

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
)

// RequestCancel returns the status a job moves to when a client cancels it.
// Only running jobs can be canceled; the execution backend finishes the move
// from canceling to canceled.
func RequestCancel(kind models.JobKind, current models.JobStatus) (models.JobStatus, error) {
	if current != models.JobStatusRunning {
		return current, invalidState(kind)
	}
	return models.JobStatusCanceling, nil
}

// CheckTransition validates a status change reported by the execution
// backend.
func CheckTransition(kind models.JobKind, current, next models.JobStatus) error {
	if !next.Valid() {
		return &Error{
			Code:    CodeInvalidState,
			Message: fmt.Sprintf("Unknown %s request status %q", kind.Label(), next),
		}
	}
	if !current.CanTransition(next) {
		return &Error{
			Code:    CodeInvalidState,
			Message: fmt.Sprintf("A %s request cannot move from %s to %s", kind.Label(), current, next),
		}
	}
	return nil
}

// NotRunning is the rejection returned when a cancel targets a job that is
// no longer running.
func NotRunning(kind models.JobKind) error {
	return invalidState(kind)
}
