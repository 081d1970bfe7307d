package domain

import "fmt"

// Sentinel errors for the domain layer.
var (
	ErrNotFound  = fmt.Errorf("not found")
	ErrDuplicate = fmt.Errorf("duplicate")

	// Topology configuration errors. These are fatal at load time: a tenant
	// with a malformed topology serves no requests until fixed.
	ErrNoDefinitions      = fmt.Errorf("no agent definitions for tenant")
	ErrNoRootSupervisor   = fmt.Errorf("no root supervisor defined")
	ErrMultipleRoots      = fmt.Errorf("multiple root supervisors defined")
	ErrTopologyCycle      = fmt.Errorf("cycle in supervisor hierarchy")
	ErrDanglingParent     = fmt.Errorf("parent supervisor not defined")
	ErrEmptySupervisor    = fmt.Errorf("supervisor has no children")
	ErrCapabilityNotFound = fmt.Errorf("capability not found")

	// Runtime errors.
	ErrOracleUnavailable = fmt.Errorf("decision oracle unavailable")
	ErrUnknownCandidate  = fmt.Errorf("oracle chose an unknown candidate")
)

// ConfigError wraps a topology configuration failure with tenant context.
type ConfigError struct {
	TenantID string
	Detail   string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("topology for tenant %q: %v (%s)", e.TenantID, e.Err, e.Detail)
	}
	return fmt.Sprintf("topology for tenant %q: %v", e.TenantID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(tenantID string, err error, detail string) *ConfigError {
	return &ConfigError{TenantID: tenantID, Err: err, Detail: detail}
}
