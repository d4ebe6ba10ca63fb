// Package stravaweblib augments the official Strava API with the extra
// abilities of the website: exporting activity and route files, reading
// bike component histories, deleting activities, and walking the social
// surfaces (kudos, comments, feeds, follower lists) that the documented
// API does not expose.
//
// The website side is driven by a logged-in session rather than an API
// token, so a WebClient needs either an email/password pair or a session
// token saved from a previous login.
package stravaweblib

import (
	"context"
	"fmt"

	"github.com/pR0Ps/stravaweblib/api"
	"github.com/pR0Ps/stravaweblib/web"
)

// WebClient bundles an authenticated website client with an official API
// client for the same athlete. The website operations are promoted; the
// documented API is reachable through API.
type WebClient struct {
	*web.Client

	// API is the official v3 API client. Nil when no API credentials
	// were supplied.
	API *api.Client
}

type Options struct {
	// website credentials; either Email+Password or SessionToken
	Email        string
	Password     string
	SessionToken string

	// official API credentials (optional)
	API api.ClientOptions

	// overrides the website base url, mainly for tests
	BaseUrl string
}

// New logs in to the website and, when API credentials are given, checks
// that both sides belong to the same athlete.
func New(ctx context.Context, opts Options) (*WebClient, error) {
	session, err := web.NewSession(ctx, web.SessionOptions{
		BaseUrl:  opts.BaseUrl,
		Email:    opts.Email,
		Password: opts.Password,
		Token:    opts.SessionToken,
	})
	if err != nil {
		return nil, err
	}

	c := &WebClient{Client: web.NewClient(session)}

	if opts.API.AccessToken != "" || opts.API.TokenSource != nil {
		apiClient, err := api.NewClient(opts.API)
		if err != nil {
			return nil, err
		}

		// mixing up accounts would silently export or delete the wrong
		// athlete's data
		athlete, err := apiClient.Athlete(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to verify api credentials: %w", err)
		}
		if athlete.Id != session.AthleteId() {
			return nil, fmt.Errorf("the api token belongs to athlete %d but the website session belongs to athlete %d",
				athlete.Id, session.AthleteId())
		}
		c.API = apiClient
	}

	return c, nil
}

// SessionToken returns the current website session token for persisting
// across runs. It is a bearer secret.
func (c *WebClient) SessionToken() string {
	return c.Session().Token()
}

// AthleteId returns the id of the logged-in athlete.
func (c *WebClient) AthleteId() int64 {
	return c.Session().AthleteId()
}
