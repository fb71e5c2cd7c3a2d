package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

const presencePath = "/ws/presence"

// PresenceUser is one entry of the online roster.
type PresenceUser struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// PresenceChannel maintains one real-time connection scoped to the lifetime
// of a known identity. Each getOnlineUsers event replaces the stored roster
// wholesale; there are no ordering guarantees beyond last-roster-wins.
type PresenceChannel struct {
	baseURL string
	dialer  *websocket.Dialer

	mu     sync.Mutex
	userID string
	conn   *websocket.Conn
	roster map[string]PresenceUser
	gen    int

	// OnRoster, when set before Track, is called with each new roster.
	OnRoster func([]PresenceUser)
}

func NewPresenceChannel(baseURL string) *PresenceChannel {
	return &PresenceChannel{
		baseURL: baseURL,
		dialer:  websocket.DefaultDialer,
		roster:  map[string]PresenceUser{},
	}
}

// Track points the channel at an identity. An empty userID closes any open
// connection; a changed userID closes the old connection and dials fresh.
// Roster events from a superseded connection are discarded.
func (p *PresenceChannel) Track(ctx context.Context, userID string) error {
	p.mu.Lock()
	if userID == p.userID && (userID == "" || p.conn != nil) {
		p.mu.Unlock()
		return nil
	}

	p.closeLocked()
	p.userID = userID
	if userID == "" {
		p.mu.Unlock()
		return nil
	}

	wsURL, err := p.presenceURL(userID)
	if err != nil {
		p.mu.Unlock()
		return err
	}

	conn, resp, err := p.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("dial presence channel: %w", err)
	}

	p.conn = conn
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	go p.readLoop(conn, gen)
	return nil
}

// Close tears the connection down and clears the roster.
func (p *PresenceChannel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userID = ""
	p.closeLocked()
}

// Roster returns a snapshot of the latest online roster.
func (p *PresenceChannel) Roster() []PresenceUser {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PresenceUser, 0, len(p.roster))
	for _, u := range p.roster {
		out = append(out, u)
	}
	return out
}

func (p *PresenceChannel) closeLocked() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.roster = map[string]PresenceUser{}
}

func (p *PresenceChannel) readLoop(conn *websocket.Conn, gen int) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var message struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &message); err != nil {
			continue
		}
		if message.Event != "getOnlineUsers" {
			continue
		}

		var users []PresenceUser
		if err := json.Unmarshal(message.Data, &users); err != nil {
			continue
		}

		next := make(map[string]PresenceUser, len(users))
		for _, u := range users {
			next[u.UserID] = u
		}

		p.mu.Lock()
		if gen != p.gen {
			// A newer connection owns the roster now.
			p.mu.Unlock()
			return
		}
		p.roster = next
		callback := p.OnRoster
		p.mu.Unlock()

		if callback != nil {
			callback(users)
		}
	}
}

func (p *PresenceChannel) presenceURL(userID string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	switch {
	case u.Scheme == "https":
		u.Scheme = "wss"
	case u.Scheme == "http" || u.Scheme == "":
		u.Scheme = "ws"
	case strings.HasPrefix(u.Scheme, "ws"):
		// Already a websocket URL.
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + presencePath
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
