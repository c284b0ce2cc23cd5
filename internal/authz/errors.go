package authz

import "errors"

// Authorization errors. They are wrapped into apperr kinds before they reach
// the client.
var (
	// ErrNoIdentity indicates that a guard ran without an authenticated identity.
	ErrNoIdentity = errors.New("no identity in context")

	// ErrNotAdmin indicates that the caller's stored role is not admin.
	ErrNotAdmin = errors.New("caller is not an admin")

	// ErrNotOwner indicates that the caller does not own the addressed resource.
	ErrNotOwner = errors.New("caller does not own the resource")

	// ErrUnknownAccount indicates that an issuance payload names no stored account.
	ErrUnknownAccount = errors.New("no account for identity")
)
