package identity

import "errors"

var (
	// ErrNoCredential means the request presented no token or key.
	// It is a normal outcome, not a failure.
	ErrNoCredential = errors.New("no credential presented")

	// ErrInvalidCredential means a credential was presented but could not
	// be verified (unknown, expired, bad signature).
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrStoreUnavailable wraps transport failures talking to the session
	// store. Callers downgrade it to ErrNoCredential semantics.
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrForbidden means the caller is known but the request is not
	// permitted, e.g. rate limited.
	ErrForbidden = errors.New("forbidden")
)
