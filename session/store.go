package session

import (
	"sync"
	"time"
)

// Payload is the normalized successful-authentication response applied to
// the store. The Manager builds it from the gateway's login, two-factor,
// and verify responses.
type Payload struct {
	User         *User
	AccessToken  string
	RefreshToken string
	SessionID    string
	Expiry       time.Time
}

// EstablishOpts controls which bookkeeping a session establishment runs.
// A credential login records history and resets the failure counters; a
// two-factor verification does neither.
type EstablishOpts struct {
	RememberMe    bool
	RecordHistory bool
	ResetCounters bool
	Identifier    string
}

// Store is the authoritative session record. All mutations go through its
// action methods; each method completes its read-decide-write under a
// single lock acquisition, so dependent fields are always replaced
// together. Subscribers are notified with a snapshot after every mutation,
// outside the lock.
type Store struct {
	mu    sync.Mutex
	state State
	epoch uint64
	subs  []func(State)
}

// NewStore returns an empty, unauthenticated store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers fn to run after every mutation with a snapshot of
// the post-mutation state. Intended for the effects layer (persistence,
// scheduler re-arming); fn must not call back into the store.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Epoch returns the current session epoch. Capture it before a network
// call and pass it to the Apply* methods; a bump in between (logout)
// causes the apply to be discarded.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// SnapshotEpoch returns the state and epoch from the same lock hold.
// Callers that read state, make a network call, then apply the result
// need this pairing — a snapshot and an epoch taken separately could
// straddle a logout.
func (s *Store) SnapshotEpoch() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone(), s.epoch
}

func (s *Store) notify(snap State) {
	for _, fn := range s.subs {
		fn(snap)
	}
}

// mutate runs fn under the lock and notifies subscribers afterwards.
func (s *Store) mutate(fn func(st *State)) State {
	s.mu.Lock()
	fn(&s.state)
	s.syncDerivedLocked()
	snap := s.state.clone()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return snap
}

// syncDerivedLocked keeps IsAuthenticated and the denormalized projections
// consistent with User/AccessToken after every mutation.
func (s *Store) syncDerivedLocked() {
	s.state.IsAuthenticated = s.state.User != nil && s.state.AccessToken != ""
	if s.state.User != nil {
		s.state.Permissions = s.state.User.Permissions
		s.state.Role = s.state.User.Role
		s.state.Company = s.state.User.Company
	} else {
		s.state.Permissions = nil
		s.state.Role = ""
		s.state.Company = nil
	}
}

// Hydrate restores a previously persisted state into an empty store. Only
// the durable subset is taken; transient fields (expiry, lockout, 2FA
// challenge, counters) start at their defaults regardless of input.
func (s *Store) Hydrate(persisted State) {
	s.mutate(func(st *State) {
		st.User = persisted.User
		st.AccessToken = persisted.AccessToken
		st.RefreshToken = persisted.RefreshToken
		st.RememberMe = persisted.RememberMe
		st.DeviceID = persisted.DeviceID
		st.Preferences = persisted.Preferences
		st.LoginHistory = persisted.LoginHistory
		if len(st.LoginHistory) > HistoryLimit {
			st.LoginHistory = st.LoginHistory[:HistoryLimit]
		}
	})
}

// SetLoading flags an in-flight credential login for reactive consumers.
func (s *Store) SetLoading(loading bool) {
	s.mutate(func(st *State) {
		st.Loading = loading
	})
}

// SetDeviceID records the stable per-device identifier. The device id
// survives logout when RememberMe is set and is independent of
// authentication state.
func (s *Store) SetDeviceID(id string) {
	s.mutate(func(st *State) {
		st.DeviceID = id
	})
}

// Establish replaces the session slice atomically from a successful
// authentication payload: user, token pair, expiry and session id always
// move together. The two-factor challenge is cleared unconditionally;
// failure counters and lockout only when opts.ResetCounters is set.
// Returns false (and mutates nothing) when the epoch no longer matches.
func (s *Store) Establish(epoch uint64, p Payload, opts EstablishOpts, now time.Time) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	st := &s.state
	st.User = p.User
	st.AccessToken = p.AccessToken
	st.RefreshToken = p.RefreshToken
	st.SessionID = p.SessionID
	st.SessionExpiry = p.Expiry
	st.LastActivity = now
	st.Loading = false
	st.RememberMe = opts.RememberMe
	st.TwoFactorRequired = false
	st.TwoFactorToken = ""
	if opts.ResetCounters {
		st.LoginAttempts = 0
		st.IsLocked = false
		st.LockoutExpiry = time.Time{}
	}
	if opts.RecordHistory {
		st.LoginHistory = prependHistory(st.LoginHistory, LoginRecord{
			Identifier: opts.Identifier,
			Timestamp:  now,
			Success:    true,
		})
	}
	s.syncDerivedLocked()
	snap := st.clone()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return true
}

// RecordLoginFailure increments the attempt counter and prepends a failed
// login record.
func (s *Store) RecordLoginFailure(identifier, reason string, now time.Time) {
	s.mutate(func(st *State) {
		st.Loading = false
		st.LoginAttempts++
		st.LoginHistory = prependHistory(st.LoginHistory, LoginRecord{
			Identifier: identifier,
			Timestamp:  now,
			Success:    false,
			Reason:     reason,
		})
	})
}

// RecordLockout marks the account locked until the server-supplied expiry,
// counting the rejected attempt like any other failure.
func (s *Store) RecordLockout(identifier string, until time.Time, now time.Time) {
	s.mutate(func(st *State) {
		st.Loading = false
		st.LoginAttempts++
		st.IsLocked = true
		st.LockoutExpiry = until
		st.LoginHistory = prependHistory(st.LoginHistory, LoginRecord{
			Identifier: identifier,
			Timestamp:  now,
			Success:    false,
			Reason:     "account_locked",
		})
	})
}

// BeginTwoFactor opens a pending second-factor challenge. The challenge is
// pre-authenticated state: user and tokens stay empty until verification.
// RememberMe is captured here so the eventual verification can honor the
// original login request.
func (s *Store) BeginTwoFactor(token string, rememberMe bool) {
	s.mutate(func(st *State) {
		st.Loading = false
		st.TwoFactorRequired = true
		st.TwoFactorToken = token
		st.RememberMe = rememberMe
	})
}

// AbandonTwoFactor clears any pending challenge. Called when a new login
// attempt supersedes the old one.
func (s *Store) AbandonTwoFactor() {
	s.mutate(func(st *State) {
		st.TwoFactorRequired = false
		st.TwoFactorToken = ""
	})
}

// ApplyTokenRefresh atomically replaces the token pair and expiry and
// touches the activity timestamp. Returns false when the epoch moved
// (logout raced the refresh) — the stale response is discarded.
func (s *Store) ApplyTokenRefresh(epoch uint64, access, refresh string, expiry, now time.Time) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	s.state.AccessToken = access
	s.state.RefreshToken = refresh
	s.state.SessionExpiry = expiry
	s.state.LastActivity = now
	s.syncDerivedLocked()
	snap := s.state.clone()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return true
}

// ApplyVerifiedUser refreshes the profile and its projections from a
// token-verification response, epoch-guarded like every other apply.
func (s *Store) ApplyVerifiedUser(epoch uint64, u *User) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	s.state.User = u
	s.syncDerivedLocked()
	snap := s.state.clone()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return true
}

// ApplyExtendedExpiry installs a fresh expiry without rotating tokens.
func (s *Store) ApplyExtendedExpiry(epoch uint64, expiry, now time.Time) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	s.state.SessionExpiry = expiry
	s.state.LastActivity = now
	s.syncDerivedLocked()
	snap := s.state.clone()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return true
}

// MergePreferences applies a partial preferences update locally. Local
// state is the source of truth; the remote mirror happens elsewhere and a
// mirror failure never rolls this back. The returned map is a copy, so
// callers may read it without holding the store lock.
func (s *Store) MergePreferences(partial Preferences) Preferences {
	var merged Preferences
	s.mutate(func(st *State) {
		if st.Preferences == nil {
			st.Preferences = make(Preferences, len(partial))
		}
		for k, v := range partial {
			st.Preferences[k] = v
		}
		merged = make(Preferences, len(st.Preferences))
		for k, v := range st.Preferences {
			merged[k] = v
		}
	})
	return merged
}

// AppendActivity prepends a timestamped, user-tagged record to the
// activity log, evicting the oldest entry beyond the limit.
func (s *Store) AppendActivity(rec ActivityRecord) {
	s.mutate(func(st *State) {
		if rec.Timestamp.IsZero() {
			rec.Timestamp = time.Now()
		}
		if rec.UserID == "" && st.User != nil {
			rec.UserID = st.User.ID
		}
		st.ActivityLog = append([]ActivityRecord{rec}, st.ActivityLog...)
		if len(st.ActivityLog) > ActivityLimit {
			st.ActivityLog = st.ActivityLog[:ActivityLimit]
		}
		st.LastActivity = rec.Timestamp
	})
}

// Reset clears the session to initial defaults and bumps the epoch so
// in-flight responses are discarded. When RememberMe was set at reset
// time, the device id and login history survive; otherwise everything
// goes, device id included.
func (s *Store) Reset() State {
	s.mu.Lock()
	preserveDevice := ""
	var preserveHistory []LoginRecord
	if s.state.RememberMe {
		preserveDevice = s.state.DeviceID
		preserveHistory = s.state.LoginHistory
	}
	s.state = State{
		DeviceID:     preserveDevice,
		LoginHistory: preserveHistory,
	}
	s.epoch++
	s.syncDerivedLocked()
	snap := s.state.clone()
	subs := s.subs
	s.mu.Unlock()
	for _, sub := range subs {
		sub(snap)
	}
	return snap
}

func prependHistory(history []LoginRecord, rec LoginRecord) []LoginRecord {
	out := append([]LoginRecord{rec}, history...)
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out
}
