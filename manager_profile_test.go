package authcore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/propertyhub/authcore/session"
)

func TestUpdatePreferencesMergesLocally(t *testing.T) {
	env := newTestManager(t)
	mustLogin(t, env, false)

	synced := make(chan session.Preferences, 2)
	env.gw.syncPreferencesFn = func(_ string, prefs session.Preferences) error {
		synced <- prefs
		return nil
	}

	if err := env.manager.UpdatePreferences(context.Background(), map[string]any{"theme": "dark", "pageSize": 25}); err != nil {
		t.Fatalf("UpdatePreferences failed: %v", err)
	}
	if err := env.manager.UpdatePreferences(context.Background(), map[string]any{"theme": "light"}); err != nil {
		t.Fatalf("UpdatePreferences failed: %v", err)
	}

	snap := env.manager.Snapshot()
	if snap.Preferences["theme"] != "light" {
		t.Fatalf("later update must win: %v", snap.Preferences["theme"])
	}
	if snap.Preferences["pageSize"] != 25 {
		t.Fatalf("untouched key must survive the merge: %v", snap.Preferences["pageSize"])
	}

	waitFor(t, func() bool { return env.gw.callCount("SyncPreferences") == 2 }, "mirror calls not observed")
	mirrored := <-synced
	if _, ok := mirrored["theme"]; !ok {
		t.Fatal("mirror must carry the merged preferences")
	}
}

func TestUpdatePreferencesMirrorFailureKeepsLocal(t *testing.T) {
	env := newTestManager(t)
	mustLogin(t, env, false)

	env.gw.syncPreferencesFn = func(string, session.Preferences) error {
		return errors.New("service unavailable")
	}

	if err := env.manager.UpdatePreferences(context.Background(), map[string]any{"theme": "dark"}); err != nil {
		t.Fatalf("mirror failure must not surface: %v", err)
	}

	waitFor(t, func() bool {
		return metricValue(env.manager, MetricPreferenceSyncFailure) == 1
	}, "sync failure counter not incremented")

	if env.manager.Snapshot().Preferences["theme"] != "dark" {
		t.Fatal("local preferences must be kept after a mirror failure")
	}
	event := nextAuditEvent(t, env.sink, EventPreferenceSync)
	if event.Error == "" {
		t.Fatal("audit event must carry the mirror error")
	}
}

func TestUpdatePreferencesConcurrentWithMirror(t *testing.T) {
	env := newTestManager(t)
	mustLogin(t, env, false)

	// Mirror goroutines read the merged map while other updates write the
	// store; the race detector catches any aliasing between the two.
	env.gw.syncPreferencesFn = func(_ string, prefs session.Preferences) error {
		for range prefs {
		}
		return nil
	}

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			if err := env.manager.UpdatePreferences(context.Background(), map[string]any{key: i}); err != nil {
				t.Errorf("UpdatePreferences failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	waitFor(t, func() bool { return env.gw.callCount("SyncPreferences") == writers }, "mirror calls not observed")

	snap := env.manager.Snapshot()
	if len(snap.Preferences) != writers {
		t.Fatalf("expected %d merged keys, got %d", writers, len(snap.Preferences))
	}
}

func TestUpdatePreferencesUnauthenticatedSkipsMirror(t *testing.T) {
	env := newTestManager(t)

	if err := env.manager.UpdatePreferences(context.Background(), map[string]any{"theme": "dark"}); err != nil {
		t.Fatalf("UpdatePreferences failed: %v", err)
	}
	if env.manager.Snapshot().Preferences["theme"] != "dark" {
		t.Fatal("local merge must apply regardless of authentication")
	}
	if env.gw.callCount("SyncPreferences") != 0 {
		t.Fatal("no mirror call expected while unauthenticated")
	}
}

func TestUpdateProfileAppliesServiceView(t *testing.T) {
	env := newTestManager(t)
	mustLogin(t, env, false)

	env.gw.updateProfileFn = func(accessToken string, fields map[string]any) (*session.User, error) {
		if accessToken != "access-1" {
			t.Errorf("profile update sent token %q", accessToken)
		}
		if fields["firstName"] != "Avery" {
			t.Errorf("fields not forwarded: %v", fields)
		}
		return &session.User{
			ID:          "u1",
			FirstName:   "Avery",
			Role:        "property_manager",
			Permissions: []string{"properties.read", "tenants.read"},
		}, nil
	}

	if err := env.manager.UpdateProfile(context.Background(), map[string]any{"firstName": "Avery"}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got := env.manager.Snapshot().User.FirstName; got != "Avery" {
		t.Fatalf("user not updated from service view: %q", got)
	}
}

func TestUpdateProfileRequiresSession(t *testing.T) {
	env := newTestManager(t)

	if err := env.manager.UpdateProfile(context.Background(), map[string]any{"firstName": "X"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if err := env.manager.ChangePassword(context.Background(), "old", "new"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPasswordFlows(t *testing.T) {
	env := newTestManager(t)
	mustLogin(t, env, false)

	var gotCurrent, gotNext string
	env.gw.changePasswordFn = func(_, current, next string) error {
		gotCurrent, gotNext = current, next
		return nil
	}
	if err := env.manager.ChangePassword(context.Background(), "old-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if gotCurrent != "old-pw" || gotNext != "new-pw" {
		t.Fatalf("passwords not forwarded: %q %q", gotCurrent, gotNext)
	}

	var gotIdentifier string
	env.gw.forgotPasswordFn = func(identifier string) error {
		gotIdentifier = identifier
		return nil
	}
	if err := env.manager.ForgotPassword(context.Background(), "manager@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if gotIdentifier != "manager@example.com" {
		t.Fatalf("identifier not forwarded: %q", gotIdentifier)
	}

	var gotResetToken string
	env.gw.resetPasswordFn = func(token, _ string) error {
		gotResetToken = token
		return nil
	}
	if err := env.manager.ResetPassword(context.Background(), "reset-tok", "fresh-pw"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if gotResetToken != "reset-tok" {
		t.Fatalf("token not forwarded: %q", gotResetToken)
	}
}

func TestLogActivityBoundedNewestFirst(t *testing.T) {
	env := newTestManager(t)
	mustLogin(t, env, false)

	for i := 0; i < session.ActivityLimit+10; i++ {
		env.manager.LogActivity("page_view", fmt.Sprintf("/properties/%d", i))
	}

	snap := env.manager.Snapshot()
	if len(snap.ActivityLog) != session.ActivityLimit {
		t.Fatalf("activity log length = %d, want %d", len(snap.ActivityLog), session.ActivityLimit)
	}
	newest := snap.ActivityLog[0]
	if newest.Detail != fmt.Sprintf("/properties/%d", session.ActivityLimit+9) {
		t.Fatalf("newest record = %+v", newest)
	}
	if newest.UserID != "u1" {
		t.Fatalf("record must be tagged with the session user: %+v", newest)
	}
	if !snap.LastActivity.Equal(newest.Timestamp) {
		t.Fatal("last activity must follow the newest record")
	}
}
