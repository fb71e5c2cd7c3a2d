package planner

// Decision is the outcome of evaluating the access guards for a route.
type Decision int

const (
	Allow Decision = iota
	RedirectUnauthorized
	RedirectBanned
	RedirectForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectUnauthorized:
		return "unauthorized"
	case RedirectBanned:
		return "banned"
	case RedirectForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Evaluate runs the access-guard predicates in their fixed order with early
// exit:
//
//  1. no role → unauthorized
//  2. status not active → banned
//  3. role not in the allow-list → forbidden
//
// The standing check is only reachable when a role is present; a session with
// no role is always unauthorized, never banned.
func Evaluate(session Session, allowedRoles []string) Decision {
	if session.Role == "" {
		return RedirectUnauthorized
	}

	if session.Status != StatusActive {
		return RedirectBanned
	}

	for _, role := range allowedRoles {
		if session.Role == role {
			return Allow
		}
	}
	return RedirectForbidden
}

// Guard binds a store and an allow-list so route code can re-evaluate on each
// entry.
type Guard struct {
	store        *Store
	allowedRoles []string
}

func NewGuard(store *Store, allowedRoles ...string) *Guard {
	return &Guard{store: store, allowedRoles: allowedRoles}
}

func (g *Guard) Check() Decision {
	return Evaluate(g.store.Get(), g.allowedRoles)
}

// ShouldSkipSignIn is the companion inverse guard: an existing sign-in marker
// redirects away from sign-in/sign-up toward the authenticated area.
func ShouldSkipSignIn(markers Markers) bool {
	return markers.Get(MarkerSignedIn) == "true"
}
