// Package api is a thin client for the official, documented Strava v3
// API. It covers only the records the scraping side needs to correlate
// against; anything deeper should go through a full API binding.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
)

var tracer = otel.Tracer("stravaweblib/api")

const DefaultBaseUrl = "https://www.strava.com/api/v3"

var ErrNotFound = errors.New("not found")

// RequestError is a non-2xx response from the API, carrying the body's
// error message when one was provided.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api request failed with status %d", e.StatusCode)
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// static bearer token
	AccessToken string
	// takes precedence over AccessToken; tokens are re-read per request
	// so refreshing sources keep working
	TokenSource oauth2.TokenSource
}

type Client struct {
	http   *resty.Client
	tokens oauth2.TokenSource
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.AccessToken == "" && opts.TokenSource == nil {
		return nil, errors.New("an access token or a token source is required")
	}
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}

	tokens := opts.TokenSource
	if tokens == nil {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken})
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("accept", "application/json")
	client.SetTimeout(time.Second * 30)

	c := &Client{http: client, tokens: tokens}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to get api token: %w", err)
		}
		req.SetAuthToken(token.AccessToken)
		return nil
	})

	return c, nil
}

type Athlete struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

type Activity struct {
	Id          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartDate   time.Time `json:"start_date"`
	Distance    float64   `json:"distance"`
	MovingTime  int       `json:"moving_time"`
	ElapsedTime int       `json:"elapsed_time"`
	GearId      string    `json:"gear_id"`
	Manual      bool      `json:"manual"`
	Private     bool      `json:"private"`
}

type Route struct {
	Id       int64   `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

type Gear struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	Primary     bool    `json:"primary"`
	BrandName   string  `json:"brand_name"`
	ModelName   string  `json:"model_name"`
	Distance    float64 `json:"distance"`
	FrameType   int     `json:"frame_type"`
	Description string  `json:"description"`
}

// Athlete fetches the authenticated athlete.
func (c *Client) Athlete(ctx context.Context) (*Athlete, error) {
	ctx, span := tracer.Start(ctx, "api:Athlete")
	defer span.End()

	var athlete Athlete
	if err := c.get(ctx, "/athlete", nil, &athlete); err != nil {
		span.SetStatus(codes.Error, "failed to fetch athlete")
		return nil, err
	}
	return &athlete, nil
}

// Activities fetches one page of the authenticated athlete's activities,
// newest first. Pages start at 1.
func (c *Client) Activities(ctx context.Context, page, perPage int) ([]Activity, error) {
	ctx, span := tracer.Start(ctx, "api:Activities")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	var activities []Activity
	query := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	if err := c.get(ctx, "/athlete/activities", query, &activities); err != nil {
		span.SetStatus(codes.Error, "failed to fetch activities")
		return nil, err
	}
	return activities, nil
}

// Activity fetches a single activity by id.
func (c *Client) Activity(ctx context.Context, activityId int64) (*Activity, error) {
	ctx, span := tracer.Start(ctx, "api:Activity")
	defer span.End()

	var activity Activity
	if err := c.get(ctx, fmt.Sprintf("/activities/%d", activityId), nil, &activity); err != nil {
		span.SetStatus(codes.Error, "failed to fetch activity")
		return nil, err
	}
	return &activity, nil
}

// Routes fetches one page of an athlete's routes.
func (c *Client) Routes(ctx context.Context, athleteId int64, page, perPage int) ([]Route, error) {
	ctx, span := tracer.Start(ctx, "api:Routes")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	var routes []Route
	query := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	if err := c.get(ctx, fmt.Sprintf("/athletes/%d/routes", athleteId), query, &routes); err != nil {
		span.SetStatus(codes.Error, "failed to fetch routes")
		return nil, err
	}
	return routes, nil
}

// Gear fetches a piece of gear by its prefixed id ("b123", "g456").
func (c *Client) Gear(ctx context.Context, gearId string) (*Gear, error) {
	ctx, span := tracer.Start(ctx, "api:Gear")
	defer span.End()

	var gear Gear
	if err := c.get(ctx, "/gear/"+gearId, nil, &gear); err != nil {
		span.SetStatus(codes.Error, "failed to fetch gear")
		return nil, err
	}
	return &gear, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(out)
	if query != nil {
		req.SetQueryParams(query)
	}

	res, err := req.Get(path)
	if err != nil {
		return err
	}
	if res.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode() != http.StatusOK {
		return &RequestError{StatusCode: res.StatusCode(), Message: apiErrorMessage(res.Body())}
	}
	return nil
}
