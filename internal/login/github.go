package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/wolfeidau/sessiongate/internal/models"
	"github.com/wolfeidau/sessiongate/internal/secrets"
	"github.com/wolfeidau/sessiongate/internal/session"
)

// Sentinel errors classifying login flow failures.
var (
	// ErrConfig indicates required configuration or secrets are missing.
	ErrConfig = errors.New("login: missing configuration")
	// ErrProvider indicates a transport or decode failure talking to GitHub.
	ErrProvider = errors.New("login: provider request failed")
	// ErrAuth indicates the identity was rejected, not that a dependency broke.
	ErrAuth = errors.New("login: authorization rejected")
)

const (
	githubEmailsURL = "https://api.github.com/user/emails"

	// requiredScope must match the token response's scope exactly; both
	// narrowing and widening are rejected.
	requiredScope = "user:email"

	startSuffix    = "/start"
	callbackSuffix = "/callback"
)

// Config holds the GitHub flow coordinator's settings. Endpoint URLs default
// to GitHub's and are only overridden in tests.
type Config struct {
	// ClientIDName and ClientSecretName are the secret names resolved through
	// the secret provider on every flow invocation.
	ClientIDName     string
	ClientSecretName string

	// SessionTTL is the lifetime of sessions created by the callback.
	SessionTTL time.Duration

	// ProtectedPath is the downstream path the callback redirects to.
	ProtectedPath string

	AuthURL   string
	TokenURL  string
	EmailsURL string
}

// Request carries what the routing layer hands the coordinator: the inbound
// request's host, path and query parameters.
type Request struct {
	Host  string
	Path  string
	Query url.Values
}

// Redirect is the coordinator's response: an HTTP redirect, optionally
// carrying a Set-Cookie header value.
type Redirect struct {
	Status    int
	Location  string
	SetCookie string
}

// Github coordinates the two-step GitHub authorization-code flow. It holds no
// per-flow state; everything a callback needs rides in the provider round-trip.
type Github struct {
	cfg      Config
	secrets  secrets.Provider
	sessions session.Store
}

// NewGithub creates a flow coordinator.
func NewGithub(cfg Config, provider secrets.Provider, sessions session.Store) (*Github, error) {
	if cfg.ClientIDName == "" || cfg.ClientSecretName == "" {
		return nil, fmt.Errorf("%w: client id and client secret parameter names are required", ErrConfig)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.ProtectedPath == "" {
		cfg.ProtectedPath = "/protected"
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = github.Endpoint.AuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = github.Endpoint.TokenURL
	}
	if cfg.EmailsURL == "" {
		cfg.EmailsURL = githubEmailsURL
	}

	return &Github{
		cfg:      cfg,
		secrets:  provider,
		sessions: sessions,
	}, nil
}

// Start builds the provider authorization redirect. No session or cookie is
// touched in this step.
func (g *Github) Start(ctx context.Context, req Request) (*Redirect, error) {
	callbackURL, err := callbackURLFor(req)
	if err != nil {
		return nil, err
	}

	conf, err := g.oauthConfig(ctx, callbackURL)
	if err != nil {
		return nil, err
	}

	// The state value rides the provider round-trip but is not persisted, so
	// the callback can only require its presence, not match it.
	state := uuid.NewString()

	authURL := conf.AuthCodeURL(state)

	log.Info().Str("callback_url", callbackURL).Msg("redirecting to provider")

	return &Redirect{Status: http.StatusTemporaryRedirect, Location: authURL}, nil
}

// Callback exchanges the authorization code for a token, validates scope,
// selects the verified primary email and materializes a logged-in session.
// Any failure aborts with no cookie set and no session created.
func (g *Github) Callback(ctx context.Context, req Request) (*Redirect, error) {
	if req.Host == "" {
		return nil, fmt.Errorf("%w: no host header", ErrConfig)
	}

	conf, err := g.oauthConfig(ctx, "")
	if err != nil {
		return nil, err
	}

	code := req.Query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: no code parameter", ErrAuth)
	}
	// state is required to be present but is not matched against the value
	// issued at Start.
	if req.Query.Get("state") == "" {
		return nil, fmt.Errorf("%w: no state parameter", ErrAuth)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrProvider, err)
	}

	scope, _ := token.Extra("scope").(string)
	if scope != requiredScope {
		return nil, fmt.Errorf("%w: token scope %q, want %q", ErrAuth, scope, requiredScope)
	}

	email, err := g.verifiedPrimaryEmail(ctx, conf, token)
	if err != nil {
		return nil, err
	}

	sess := models.NewSession()
	if err := sess.Insert(models.UserKey, models.User{Email: email}); err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}
	sess.ExpireIn(g.cfg.SessionTTL)

	cookie, err := g.sessions.Store(ctx, sess)
	if err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Str("session_id", sess.ID()).Msg("user logged in")

	// The cookie rides both the Set-Cookie header and the redirect query so
	// clients that drop response headers before following the redirect still
	// receive it.
	location := fmt.Sprintf("https://%s%s?session=%s", req.Host, g.cfg.ProtectedPath, url.QueryEscape(cookie))

	return &Redirect{
		Status:    http.StatusTemporaryRedirect,
		Location:  location,
		SetCookie: fmt.Sprintf("%s=%s; SameSite=Lax; Path=/", models.CookieName, cookie),
	}, nil
}

// oauthConfig fetches the client credentials and builds the oauth2 config for
// one flow invocation. Credentials are never cached across invocations.
func (g *Github) oauthConfig(ctx context.Context, callbackURL string) (*oauth2.Config, error) {
	clientID, err := g.secrets.GetSecret(ctx, g.cfg.ClientIDName)
	if err != nil {
		return nil, fmt.Errorf("%w: client id: %v", ErrConfig, err)
	}

	clientSecret, err := g.secrets.GetSecret(ctx, g.cfg.ClientSecretName)
	if err != nil {
		return nil, fmt.Errorf("%w: client secret: %v", ErrConfig, err)
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes:       []string{requiredScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  g.cfg.AuthURL,
			TokenURL: g.cfg.TokenURL,
		},
	}, nil
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// verifiedPrimaryEmail fetches the user's emails and selects the one flagged
// both primary and verified. Anything less is rejected.
func (g *Github) verifiedPrimaryEmail(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := conf.Client(ctx, token)
	resp, err := client.Get(g.cfg.EmailsURL)
	if err != nil {
		return "", fmt.Errorf("%w: fetch emails: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: emails endpoint returned HTTP %d", ErrProvider, resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("%w: decode emails: %v", ErrProvider, err)
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}

	return "", fmt.Errorf("%w: no verified primary email", ErrAuth)
}

// callbackURLFor derives the callback URL from the start request's host and
// path by swapping the action suffix.
func callbackURLFor(req Request) (string, error) {
	if req.Host == "" {
		return "", fmt.Errorf("%w: no host header", ErrConfig)
	}
	if !strings.HasSuffix(req.Path, startSuffix) {
		return "", fmt.Errorf("%w: path %q does not end in %s", ErrConfig, req.Path, startSuffix)
	}

	path := strings.TrimSuffix(req.Path, startSuffix) + callbackSuffix
	return "https://" + req.Host + path, nil
}
