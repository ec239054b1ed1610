package permission

import "github.com/propertyhub/authcore/session"

// HasPermission reports whether the snapshot grants perm. Unauthenticated
// sessions grant nothing; the super-admin role grants everything; everyone
// else needs perm in their permission list.
func HasPermission(s session.State, perm string) bool {
	if !s.IsAuthenticated {
		return false
	}
	if s.Role == RoleSuperAdmin {
		return true
	}
	return s.HasPermissionString(perm)
}

// HasRole reports whether the snapshot is authenticated with exactly role.
// No hierarchy: a super admin does not "have" the tenant role.
func HasRole(s session.State, role string) bool {
	return s.IsAuthenticated && s.Role == role
}

// HasAnyRole reports whether the snapshot's role is a member of roles.
func HasAnyRole(s session.State, roles ...string) bool {
	if !s.IsAuthenticated {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// Evaluator binds the queries to a snapshot source so consumers hold one
// value instead of re-fetching snapshots themselves.
type Evaluator struct {
	source func() session.State
}

// NewEvaluator wraps a snapshot source, typically Manager.Snapshot.
func NewEvaluator(source func() session.State) *Evaluator {
	return &Evaluator{source: source}
}

// HasPermission evaluates against the current snapshot.
func (e *Evaluator) HasPermission(perm string) bool {
	return HasPermission(e.source(), perm)
}

// HasRole evaluates against the current snapshot.
func (e *Evaluator) HasRole(role string) bool {
	return HasRole(e.source(), role)
}

// HasAnyRole evaluates against the current snapshot.
func (e *Evaluator) HasAnyRole(roles ...string) bool {
	return HasAnyRole(e.source(), roles...)
}
