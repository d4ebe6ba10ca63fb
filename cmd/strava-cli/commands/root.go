package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pR0Ps/stravaweblib"
	"github.com/pR0Ps/stravaweblib/api"
	"github.com/pR0Ps/stravaweblib/lib/configutil"
	"github.com/pR0Ps/stravaweblib/lib/restyutil"
	"github.com/pR0Ps/stravaweblib/lib/tokenstore"
	"github.com/pR0Ps/stravaweblib/web"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "strava-cli",
	Short: "strava-cli drives the undocumented parts of the Strava website: exports, bike components, kudos, comments, feeds.",
}

var debugHttp *bool

func init() {
	debugHttp = rootCmd.PersistentFlags().Bool("debug-http", false, "Dump every http exchange to .dev/resty for debugging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

type Config struct {
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	ApiToken   string            `json:"api_token"`
	TokenStore tokenstore.Config `json:"token_store"`
}

// newClient logs in to the website, preferring a stored session token
// over the full credential handshake, and stores the token it ends up
// with for the next run.
func newClient(ctx context.Context) *stravaweblib.WebClient {
	if *debugHttp {
		web.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/strava-cli"))
	}

	cfg, err := configutil.ReadConfig[Config]("strava.json5")
	if err != nil {
		fatal("failed to read config", err)
	}

	var store tokenstore.Store
	var haveStore bool
	if cfg.TokenStore.File != "" || cfg.TokenStore.Url != "" {
		db, err := tokenstore.OpenDB(cfg.TokenStore)
		if err != nil {
			fatal("failed to open token store", err)
		}
		store = tokenstore.New(db)
		haveStore = true
	}

	opts := stravaweblib.Options{
		Email:    cfg.Email,
		Password: cfg.Password,
	}
	if cfg.ApiToken != "" {
		opts.API = api.ClientOptions{AccessToken: cfg.ApiToken}
	}

	if haveStore {
		token, err := store.Get(ctx, cfg.Email)
		if err == nil {
			resumed := opts
			resumed.SessionToken = token
			client, err := stravaweblib.New(ctx, resumed)
			if err == nil {
				return client
			}
			if !errors.Is(err, web.ErrAuthentication) {
				fatal("failed to log in", err)
			}
			slog.Info("stored session token no longer works, logging in again")
		} else if !errors.Is(err, tokenstore.ErrNotFound) {
			fatal("failed to read token store", err)
		}
	}

	client, err := stravaweblib.New(ctx, opts)
	if err != nil {
		fatal("failed to log in", err)
	}

	if haveStore {
		if err := store.Put(ctx, cfg.Email, client.SessionToken()); err != nil {
			slog.Warn("failed to store session token", "err", err)
		}
	}
	return client
}
