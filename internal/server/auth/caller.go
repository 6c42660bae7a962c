// Package auth resolves and represents caller identities. End users present
// HS256 bearer tokens minted by the authenticating environment; the
// privileged backend presents the service API key. The ledger itself only
// ever sees the resulting Caller.
package auth

// Caller is the authorizing identity of one ledger operation.
type Caller struct {
	// Account is the caller's account name.
	Account string
	// IsService marks the distinguished privileged service identity.
	IsService bool
}

// Is reports whether the caller is exactly the given account. Used for
// owner-only operations; the service identity does not pass this check.
func (c Caller) Is(account string) bool {
	return !c.IsService && c.Account == account
}

// IsOrService reports whether the caller is the given account or the
// privileged service identity. Used for owner-or-service operations.
func (c Caller) IsOrService(account string) bool {
	return c.IsService || c.Account == account
}
