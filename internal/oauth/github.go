package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoangdanh165/devplanner/internal/model"
)

const (
	defaultGitHubTokenURL = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL  = "https://api.github.com/user"
)

type GitHubConfig struct {
	ClientID     string
	ClientSecret string

	// TokenURL and UserURL can be overridden in tests.
	TokenURL string
	UserURL  string

	HTTPClient *http.Client
}

// GitHubProvider exchanges an authorization code for an access token and
// resolves the user behind it. The web client only ever sees the code.
type GitHubProvider struct {
	cfg GitHubConfig
}

func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultGitHubTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultGitHubUserURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GitHubProvider{cfg: cfg}
}

type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (UserInfo, error) {
	form := url.Values{
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return UserInfo{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("exchange github code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return UserInfo{}, fmt.Errorf("%w: github token status %d: %s",
			model.ErrOAuthExchange, resp.StatusCode, string(body))
	}

	var token githubTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return UserInfo{}, fmt.Errorf("decode github token response: %w", err)
	}
	if token.Error != "" || token.AccessToken == "" {
		return UserInfo{}, fmt.Errorf("%w: github rejected code: %s", model.ErrOAuthExchange, token.Error)
	}

	return p.fetchUser(ctx, token.AccessToken)
}

func (p *GitHubProvider) fetchUser(ctx context.Context, accessToken string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserURL, nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetch github user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("%w: github user status %d", model.ErrOAuthExchange, resp.StatusCode)
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return UserInfo{}, fmt.Errorf("decode github user: %w", err)
	}

	// Accounts with a private email still need a stable identity.
	email := user.Email
	if email == "" {
		email = user.Login + "@users.noreply.github.com"
	}
	name := user.Name
	if name == "" {
		name = user.Login
	}

	return UserInfo{Email: email, FullName: name, Avatar: user.AvatarURL}, nil
}
