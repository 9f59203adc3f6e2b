package errors

import "fmt"

var (
	// Validation errors, detected before any write.
	ErrForbidden        = fmt.Errorf("actor is not allowed to perform this action")
	ErrOwnerProtected   = fmt.Errorf("chat owner cannot be removed or demoted")
	ErrNotFound         = fmt.Errorf("document not found")
	ErrAlreadyRequested = fmt.Errorf("friend request already pending")
	ErrAlreadyFriends   = fmt.Errorf("users are already friends")
	ErrSelfReference    = fmt.Errorf("operation references the acting user itself")
	ErrEmptyMessage     = fmt.Errorf("message has no text and no attachment")
	ErrInvalidDocument  = fmt.Errorf("document violates entity schema")

	// ErrPartialFailure marks a paired update whose first write committed
	// and whose second did not. The relation stays one-sided until a retry
	// from either side heals it.
	ErrPartialFailure = fmt.Errorf("one side of a paired update failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
