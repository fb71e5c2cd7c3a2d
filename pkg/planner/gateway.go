package planner

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// requestState tracks one logical request through the retry-once protocol.
// The only legal path is Unsent → Sent → RetriedOnce; there is no transition
// out of RetriedOnce, which is what enforces "at most one retry".
type requestState int

const (
	stateUnsent requestState = iota
	stateSent
	stateRetriedOnce
)

type sessionRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Gateway is an http.RoundTripper that attaches the current access token to
// outgoing requests and transparently recovers from exactly one
// expired-credential event per request: on a 401 it refreshes the session
// once and resends the original request once.
//
// Concurrent requests that each hit a 401 each trigger their own refresh;
// there is deliberately no single-flight coalescing.
type Gateway struct {
	base      http.RoundTripper
	store     *Store
	refresher sessionRefresher
}

func NewGateway(base http.RoundTripper, store *Store, refresher sessionRefresher) *Gateway {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Gateway{base: base, store: store, refresher: refresher}
}

func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	// Attach the bearer token only when the caller did not set one.
	if req.Header.Get("Authorization") == "" {
		if session := g.store.Get(); session.AccessToken != "" {
			// Per RoundTripper contract the original request is not
			// mutated.
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		}
	}

	state := stateUnsent
	for {
		resp, err := g.base.RoundTrip(req)
		if state == stateUnsent {
			state = stateSent
		}
		if err != nil {
			return nil, err
		}

		// Anything other than an authorization failure propagates
		// untouched, as does a second 401 after the retry.
		if resp.StatusCode != http.StatusUnauthorized || state != stateSent {
			return resp, nil
		}

		// The original response is replaced by the retry's outcome.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		resp.Body.Close()

		token, err := g.refresher.Refresh(req.Context())
		if err != nil {
			// Refresh failed: surface that failure, no second attempt.
			return nil, err
		}

		retry, err := cloneForRetry(req)
		if err != nil {
			return nil, err
		}
		retry.Header.Set("Authorization", "Bearer "+token)

		req = retry
		state = stateRetriedOnce
	}
}

// cloneForRetry rebuilds the request body where possible so the retried
// request carries the same payload as the original.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot retry request with non-replayable body")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	retry.Body = body
	return retry, nil
}
