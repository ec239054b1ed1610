package session

import "time"

const (
	// HistoryLimit is the maximum number of retained login records.
	HistoryLimit = 10
	// ActivityLimit is the maximum number of retained activity records.
	ActivityLimit = 50
)

// User is the profile record owned by the session store. UI code receives
// copies through [Store.Snapshot] and never mutates it directly.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Company     *Company `json:"company,omitempty"`
}

// Company is the company reference carried on a [User].
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// LoginRecord is one entry of the bounded login history ring.
type LoginRecord struct {
	Identifier string    `json:"identifier"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
	Reason     string    `json:"reason,omitempty"`
}

// ActivityRecord is one entry of the bounded activity log ring.
type ActivityRecord struct {
	Type      string    `json:"type"`
	Detail    string    `json:"detail,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Preferences is the user-editable settings object. Updates are merged
// key-wise and mirrored to the identity service asynchronously.
type Preferences map[string]any

// State is the complete session record at a point in time.
//
// IsAuthenticated is derived: it is true iff User and AccessToken are both
// present and no logout or expiry event cleared them since. The store keeps
// the field in sync on every mutation; it is stored (rather than computed on
// read) so the persisted form can round-trip it.
type State struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	SessionID       string

	SessionExpiry time.Time
	LastActivity  time.Time

	Loading       bool
	LoginAttempts int
	IsLocked      bool
	LockoutExpiry time.Time

	TwoFactorRequired bool
	TwoFactorToken    string

	RememberMe bool

	// Denormalized projections of User, refreshed on every
	// state-changing gateway response.
	Permissions []string
	Role        string
	Company     *Company

	DeviceID     string
	LoginHistory []LoginRecord
	ActivityLog  []ActivityRecord
	Preferences  Preferences
}

// HasPermissionString reports whether perm is a member of the denormalized
// permission list. Policy (super-admin bypass, role checks) lives in the
// permission package; this is only the raw containment test.
func (s State) HasPermissionString(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Expired reports whether the session holds an expiry that has passed at
// the given instant. A zero expiry never counts as expired.
func (s State) Expired(now time.Time) bool {
	return !s.SessionExpiry.IsZero() && now.After(s.SessionExpiry)
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		u.Permissions = append([]string(nil), s.User.Permissions...)
		if s.User.Company != nil {
			c := *s.User.Company
			u.Company = &c
		}
		out.User = &u
	}
	out.Permissions = append([]string(nil), s.Permissions...)
	if s.Company != nil {
		c := *s.Company
		out.Company = &c
	}
	out.LoginHistory = append([]LoginRecord(nil), s.LoginHistory...)
	out.ActivityLog = append([]ActivityRecord(nil), s.ActivityLog...)
	if s.Preferences != nil {
		prefs := make(Preferences, len(s.Preferences))
		for k, v := range s.Preferences {
			prefs[k] = v
		}
		out.Preferences = prefs
	}
	return out
}
