package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// persistedFormatVersion is the current durable-storage schema version.
// The codec is append-only: new versions may add fields but never
// reinterpret old ones.
const persistedFormatVersion = 1

// ErrCorruptState is returned when a persisted blob cannot be decoded.
// Callers treat it as "no prior session" and start clean.
var ErrCorruptState = errors.New("corrupt persisted session state")

// persistedState is the exact durable subset of [State]. Everything else
// (expiry, lockout, challenge tokens, counters, activity log) is rebuilt
// per process and must never be written here.
type persistedState struct {
	Version         int           `json:"v"`
	User            *User         `json:"user,omitempty"`
	Token           string        `json:"token,omitempty"`
	RefreshToken    string        `json:"refreshToken,omitempty"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	RememberMe      bool          `json:"rememberMe"`
	DeviceID        string        `json:"deviceId,omitempty"`
	Preferences     Preferences   `json:"preferences,omitempty"`
	LoginHistory    []LoginRecord `json:"loginHistory,omitempty"`
}

// EncodePersisted serializes the durable subset of s.
func EncodePersisted(s State) ([]byte, error) {
	p := persistedState{
		Version:         persistedFormatVersion,
		User:            s.User,
		Token:           s.AccessToken,
		RefreshToken:    s.RefreshToken,
		IsAuthenticated: s.IsAuthenticated,
		RememberMe:      s.RememberMe,
		DeviceID:        s.DeviceID,
		Preferences:     s.Preferences,
		LoginHistory:    s.LoginHistory,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode persisted session: %w", err)
	}
	return data, nil
}

// DecodePersisted parses a durable blob back into a [State] containing
// only the persisted subset. A blob that was written with IsAuthenticated
// but is missing either the user or the token decodes as unauthenticated;
// the pair invariant holds even against tampered storage.
func DecodePersisted(data []byte) (State, error) {
	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if p.Version < 1 || p.Version > persistedFormatVersion {
		return State{}, fmt.Errorf("%w: unknown version %d", ErrCorruptState, p.Version)
	}
	st := State{
		User:         p.User,
		AccessToken:  p.Token,
		RefreshToken: p.RefreshToken,
		RememberMe:   p.RememberMe,
		DeviceID:     p.DeviceID,
		Preferences:  p.Preferences,
		LoginHistory: p.LoginHistory,
	}
	st.IsAuthenticated = st.User != nil && st.AccessToken != ""
	if len(st.LoginHistory) > HistoryLimit {
		st.LoginHistory = st.LoginHistory[:HistoryLimit]
	}
	return st, nil
}
