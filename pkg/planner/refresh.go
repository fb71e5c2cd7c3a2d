package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const refreshPath = "/api/v1/users/refresh/"

// Refresher exchanges the durable refresh credential (an httpOnly cookie the
// HTTP client's jar carries; this code never sees it) for a fresh access
// token plus identity payload. One round trip, no retry loop of its own.
type Refresher struct {
	baseURL string
	// httpClient must carry the cookie jar holding the refresh credential
	// and must NOT route through the Gateway, or a refresh could recurse.
	httpClient *http.Client
	store      *Store
	markers    Markers
}

func NewRefresher(baseURL string, httpClient *http.Client, store *Store, markers Markers) *Refresher {
	return &Refresher{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
		markers:    markers,
	}
}

// Refresh performs the exchange and returns the new access token.
//
// On success the response payload is merged onto the prior session (response
// fields win, absent fields are retained) and the merged result replaces the
// store's session.
//
// On an authorization failure the durable sign-in markers are cleared and the
// error is returned; the session itself is left for the caller to decide. Any
// other failure is returned without side effects.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+refreshPath, nil)
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := errorFromResponse(resp)
		if errors.Is(apiErr, ErrUnauthorized) {
			_ = r.markers.Delete(MarkerSignedIn)
			_ = r.markers.Delete(MarkerLastProject)
		}
		return "", apiErr
	}

	var envelope struct {
		Data sessionUpdate `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}

	merged := envelope.Data.applyTo(r.store.Get())
	r.store.Replace(merged)
	return merged.AccessToken, nil
}
