package ports

import "github.com/kata/useradmin/internal/core/security"

// Session is the server-side state attached to one browser.
type Session interface {
	// Principal returns the bound identity, if any.
	Principal() (*security.Principal, bool)
	// Bind attaches p under a fresh session id.
	Bind(p security.Principal) error
	// Invalidate discards all session state.
	Invalidate() error
}
