package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// PlanRecord is one planning project as listed by the projects endpoint.
type PlanRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Brief     string    `json:"brief"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageMeta is the pagination block of list responses.
type PageMeta struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// Config configures a Client. BaseURL is required; everything else has
// working defaults.
type Config struct {
	BaseURL string
	Markers Markers
	// Transport underlies both the plain and the privileged HTTP client.
	Transport http.RoundTripper
	Timeout   time.Duration
}

// Client is the facade over the session subsystem: it wires the Store,
// Refresher, Gateway and markers together and exposes the API operations the
// planner UI needs.
type Client struct {
	baseURL   string
	store     *Store
	markers   Markers
	refresher *Refresher
	presence  *PresenceChannel

	// plain carries the cookie jar but no bearer logic: sign-in flows and
	// the refresh exchange.
	plain *http.Client
	// privileged routes through the Gateway: bearer attachment plus the
	// retry-once protocol.
	privileged *http.Client
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	markers := cfg.Markers
	if markers == nil {
		markers = NewMemoryMarkers()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	store := NewStore()
	plain := &http.Client{Jar: jar, Transport: cfg.Transport, Timeout: timeout}
	refresher := NewRefresher(baseURL, plain, store, markers)
	privileged := &http.Client{
		Jar:       jar,
		Transport: NewGateway(cfg.Transport, store, refresher),
		Timeout:   timeout,
	}

	return &Client{
		baseURL:    baseURL,
		store:      store,
		markers:    markers,
		refresher:  refresher,
		presence:   NewPresenceChannel(baseURL),
		plain:      plain,
		privileged: privileged,
	}, nil
}

// Store exposes the session store for guards and subscribers.
func (c *Client) Store() *Store { return c.store }

// Markers exposes the durable marker store.
func (c *Client) Markers() Markers { return c.markers }

// Presence exposes the presence channel.
func (c *Client) Presence() *PresenceChannel { return c.presence }

// Bootstrap builds the startup guard over this client's session state.
func (c *Client) Bootstrap() *Bootstrap {
	return NewBootstrap(c.store, c.markers, c.refresher)
}

// Refresh runs the refresh operation directly.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refresher.Refresh(ctx)
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email string, password string) (Session, error) {
	return c.signIn(ctx, "/api/v1/users/sign-in", map[string]string{
		"email":    email,
		"password": password,
	})
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, email string, fullName string, password string) (Session, error) {
	return c.signIn(ctx, "/api/v1/users/sign-up", map[string]string{
		"email":    email,
		"fullName": fullName,
		"password": password,
	})
}

// SignInWithGoogle authenticates with a Google OAuth access token.
func (c *Client) SignInWithGoogle(ctx context.Context, token string) (Session, error) {
	return c.signIn(ctx, "/api/v1/users/google-sign-in", map[string]string{"token": token})
}

// SignInWithGitHub authenticates with a GitHub authorization code.
func (c *Client) SignInWithGitHub(ctx context.Context, code string) (Session, error) {
	return c.signIn(ctx, "/api/v1/users/github-sign-in", map[string]string{"code": code})
}

// ForgotPassword requests a password reset for the email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.postJSON(ctx, c.plain, "/api/v1/users/forgot-password", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp)
	}
	return nil
}

// SignOut invalidates the durable credential (best effort; failures are
// ignored), clears the session, and drops the durable sign-in markers.
func (c *Client) SignOut(ctx context.Context) {
	if resp, err := c.postJSON(ctx, c.plain, "/api/v1/users/sign-out/", nil); err == nil {
		resp.Body.Close()
	}

	c.store.Clear()
	c.presence.Close()
	_ = c.markers.Delete(MarkerSignedIn)
	_ = c.markers.Delete(MarkerLastProject)
}

// Projects lists the caller's plans, one page at a time, through the
// privileged gateway.
func (c *Client) Projects(ctx context.Context, page int) ([]PlanRecord, PageMeta, error) {
	url := fmt.Sprintf("%s/api/v1/projects/?page=%d", c.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("build projects request: %w", err)
	}

	resp, err := c.privileged.Do(req)
	if err != nil {
		return nil, PageMeta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, PageMeta{}, errorFromResponse(resp)
	}

	var envelope struct {
		Data []PlanRecord `json:"data"`
		Meta PageMeta     `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, PageMeta{}, fmt.Errorf("decode projects response: %w", err)
	}
	return envelope.Data, envelope.Meta, nil
}

// Do sends an arbitrary request through the privileged gateway.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.privileged.Do(req)
}

func (c *Client) signIn(ctx context.Context, path string, body map[string]string) (Session, error) {
	resp, err := c.postJSON(ctx, c.plain, path, body)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, errorFromResponse(resp)
	}

	var envelope struct {
		Data Session `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Session{}, fmt.Errorf("decode sign-in response: %w", err)
	}

	c.store.Replace(envelope.Data)
	_ = c.markers.Set(MarkerSignedIn, "true")
	return envelope.Data, nil
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return client.Do(req)
}
