package sync

import (
	"errors"
	"fmt"

	"github.com/gerunddev/duomark/internal/state"
	"github.com/gerunddev/duomark/internal/transcode"
)

// ErrSyncFailure matches failures that are neither parse nor serialize
// failures, such as a surface rejecting a replace or a recovered panic
var ErrSyncFailure = errors.New("sync failure")

// SyncError reports a failed sync attempt in one direction
type SyncError struct {
	Direction state.Direction
	Op        string
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to %s (%s): %v", e.Op, e.Direction, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is reports ErrSyncFailure for everything the transcoder did not cause
func (e *SyncError) Is(target error) bool {
	if target != ErrSyncFailure {
		return false
	}
	return !errors.Is(e.Err, transcode.ErrParse) && !errors.Is(e.Err, transcode.ErrSerialize)
}

// recoverSync turns a value recovered inside a critical section into a
// SyncError
func recoverSync(d state.Direction, err *error, r interface{}) {
	if r != nil {
		*err = &SyncError{Direction: d, Op: "apply", Err: fmt.Errorf("panic: %v", r)}
	}
}
