package planner

import "context"

// BootstrapState is the lifecycle of session restoration at startup.
type BootstrapState int

const (
	StateUninitialized BootstrapState = iota
	StateChecking
	StateReady
)

func (s BootstrapState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateChecking:
		return "checking"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Bootstrap gates application startup until the session state is known.
// Restoration runs only when the persist marker is set and no access token is
// present; in every other case Run reports Ready immediately.
type Bootstrap struct {
	store     *Store
	markers   Markers
	refresher sessionRefresher
	state     BootstrapState
	expired   bool
}

func NewBootstrap(store *Store, markers Markers, refresher sessionRefresher) *Bootstrap {
	return &Bootstrap{
		store:     store,
		markers:   markers,
		refresher: refresher,
		state:     StateUninitialized,
	}
}

func (b *Bootstrap) State() BootstrapState {
	return b.state
}

// Run drives the state machine to Ready and returns the resulting session.
// The refresh is attempted at most once and its outcome does not change the
// destination state: a failed restoration just means the caller proceeds
// unauthenticated and downstream guards redirect.
//
// Cancelling ctx aborts the in-flight refresh; a cancelled refresh never
// writes to the store, so teardown cannot observe a late update.
func (b *Bootstrap) Run(ctx context.Context) Session {
	session := b.store.Get()

	if session.AccessToken != "" || !PersistEnabled(b.markers) {
		b.finish(session)
		return session
	}

	b.state = StateChecking
	if _, err := b.refresher.Refresh(ctx); err == nil {
		session = b.store.Get()
	}

	// A failed restoration means the saved session expired. The marker makes
	// the resulting notice one-shot: it fires on the first unauthenticated
	// bootstrap and stays quiet until a fresh sign-in re-arms it.
	if session.AccessToken == "" && b.markers.Get(MarkerExpiryAlerted) != "true" {
		b.expired = true
		_ = b.markers.Set(MarkerExpiryAlerted, "true")
	}

	b.finish(session)
	return session
}

// SessionExpired reports whether this run should surface the one-time
// session-expiry notice. At most one Run per re-arm cycle returns true.
func (b *Bootstrap) SessionExpired() bool {
	return b.expired
}

func (b *Bootstrap) finish(session Session) {
	// A valid token means any earlier expiry notice no longer applies;
	// clearing the marker re-arms the one-time alert.
	if session.AccessToken != "" {
		_ = b.markers.Delete(MarkerExpiryAlerted)
	}
	b.state = StateReady
}
