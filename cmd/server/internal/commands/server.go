package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/wolfeidau/sessiongate/internal/auth"
	"github.com/wolfeidau/sessiongate/internal/logger"
	"github.com/wolfeidau/sessiongate/internal/login"
	"github.com/wolfeidau/sessiongate/internal/secrets"
	"github.com/wolfeidau/sessiongate/internal/session"
)

type ServerCmd struct {
	Listen string `help:"HTTP server listen address" default:"localhost:8000" env:"SESSIONGATE_LISTEN"`

	// GitHub OAuth configuration. Parameter names are resolved through SSM on
	// every flow invocation; direct values bypass SSM for local development.
	ClientIDParam     string `help:"SSM parameter name holding the GitHub client ID" default:"" env:"SESSIONGATE_GITHUB_CLIENT_ID_PARAM"`
	ClientSecretParam string `help:"SSM parameter name holding the GitHub client secret" default:"" env:"SESSIONGATE_GITHUB_CLIENT_SECRET_PARAM"`
	ClientID          string `help:"GitHub client ID (development only, bypasses SSM)" default:"" env:"SESSIONGATE_GITHUB_CLIENT_ID"`
	ClientSecret      string `help:"GitHub client secret (development only, bypasses SSM)" default:"" env:"SESSIONGATE_GITHUB_CLIENT_SECRET"`

	SessionTTL time.Duration `help:"session TTL" default:"168h" env:"SESSIONGATE_SESSION_TTL"`

	Store StoreFlags `embed:""`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	kv, err := c.Store.createKV(ctx)
	if err != nil {
		return err
	}
	sessions := session.NewKVStore(kv)

	provider, clientIDName, clientSecretName, err := c.secretProvider(ctx)
	if err != nil {
		return err
	}

	gh, err := login.NewGithub(login.Config{
		ClientIDName:     clientIDName,
		ClientSecretName: clientSecretName,
		SessionTTL:       c.SessionTTL,
	}, provider, sessions)
	if err != nil {
		return fmt.Errorf("failed to initialize GitHub login: %w", err)
	}

	verifier := auth.NewVerifier(sessions)
	requireSession := auth.RequireSession(verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/login/github/start", gh.StartHandler())
	mux.HandleFunc("/login/github/callback", gh.CallbackHandler())
	mux.Handle("/protected", requireSession(protectedHandler()))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := logger.Requests(log)(mux)

	log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
	return configureHTTPServer(c.Listen, handler).ListenAndServe()
}

// secretProvider picks the secret capability: direct flag values for
// development, SSM Parameter Store otherwise.
func (c *ServerCmd) secretProvider(ctx context.Context) (secrets.Provider, string, string, error) {
	if c.ClientID != "" || c.ClientSecret != "" {
		const (
			idName     = "github/client_id"
			secretName = "github/client_secret"
		)
		provider := secrets.Static{
			idName:     c.ClientID,
			secretName: c.ClientSecret,
		}
		return provider, idName, secretName, nil
	}

	if c.ClientIDParam == "" || c.ClientSecretParam == "" {
		return nil, "", "", fmt.Errorf("GitHub client id and secret parameter names are required (--client-id-param/--client-secret-param) unless direct values are given")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to load AWS config: %w", err)
	}

	return secrets.NewSSM(ssm.NewFromConfig(awsConfig)), c.ClientIDParam, c.ClientSecretParam, nil
}

// protectedHandler renders the downstream protected resource for an accepted
// request. The verifier middleware guarantees the identity context is present.
func protectedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("<p>Forbidden</p>"))
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<h1>hello %s</h1>", identity["email"])
	})
}
