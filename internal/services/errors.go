package services

import (
	"errors"
	"fmt"
)

// Error categories. Specific sentinel errors wrap exactly one category so
// handlers can map them to a response class with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrAuthorization     = errors.New("authorization error")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrConflict          = errors.New("conflict")
)

var (
	ErrSelfRelationship = fmt.Errorf("%w: cannot send a request to yourself", ErrValidation)
	ErrAccountNotFound  = fmt.Errorf("%w: account", ErrNotFound)
	ErrGroupNotFound    = fmt.Errorf("%w: group", ErrNotFound)

	ErrNoValidInvite  = fmt.Errorf("%w: no valid invite for this group", ErrAuthorization)
	ErrNotGroupAdmin  = fmt.Errorf("%w: requires group owner or admin", ErrAuthorization)
	ErrNotGroupMember = fmt.Errorf("%w: requires active group membership", ErrAuthorization)

	ErrNotPendingMember   = fmt.Errorf("%w: membership is not awaiting approval", ErrConflict)
	ErrMembershipNotFound = fmt.Errorf("%w: membership", ErrNotFound)
	ErrOwnerCannotLeave   = fmt.Errorf("%w: transfer group ownership before leaving", ErrIllegalTransition)
	ErrInviteNotFound     = fmt.Errorf("%w: invite", ErrNotFound)

	ErrInviteeUnspecified = fmt.Errorf("%w: invite needs an account id or an email", ErrValidation)
	ErrGroupNameRequired  = fmt.Errorf("%w: group name is required", ErrValidation)
	ErrBadGroupKind       = fmt.Errorf("%w: unknown group kind", ErrValidation)
)
