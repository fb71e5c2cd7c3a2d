package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hoangdanh165/devplanner/internal/model"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// UserInfo is the provider-agnostic identity returned by both providers.
type UserInfo struct {
	Email    string
	FullName string
	Avatar   string
}

type GoogleConfig struct {
	ClientID string

	// UserInfoURL can be overridden in tests.
	UserInfoURL string

	HTTPClient *http.Client
}

// GoogleProvider verifies a Google OAuth access token by fetching the
// userinfo endpoint with it. The web client performs the consent flow and
// hands us only the resulting access token.
type GoogleProvider struct {
	cfg GoogleConfig
}

func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultGoogleUserInfoURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleProvider{cfg: cfg}
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) Verify(ctx context.Context, accessToken string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetch google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return UserInfo{}, fmt.Errorf("%w: google userinfo status %d: %s",
			model.ErrOAuthExchange, resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return UserInfo{}, fmt.Errorf("decode google userinfo: %w", err)
	}
	if info.Email == "" {
		return UserInfo{}, fmt.Errorf("%w: google userinfo has no email", model.ErrOAuthExchange)
	}

	return UserInfo{Email: info.Email, FullName: info.Name, Avatar: info.Picture}, nil
}
