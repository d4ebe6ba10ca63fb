package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pR0Ps/stravaweblib/lib/htmlutil"
	"github.com/pR0Ps/stravaweblib/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("stravaweblib/web")

const DefaultBaseUrl = "https://www.strava.com"

const (
	rememberTokenCookie = "strava_remember_token"
	rememberIdCookie    = "strava_remember_id"
)

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables request/response dumps for every
// session created afterwards.
func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

// Session holds an authenticated website session and attaches it to
// every request issued through it. A Session is not safe for concurrent
// use: callers parallelizing work should create one Session per worker.
type Session struct {
	BaseUrl *url.URL
	Http    *resty.Client

	// kept so a rejected session can be re-established
	email    string
	password string

	athleteId int64

	csrfParam string
	csrfToken string
}

type SessionOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// credential login path
	Email    string
	Password string
	// session token from a previous login; skips the login handshake
	Token string
}

// NewSession establishes an authenticated session. With a Token it is
// resumed locally without any network traffic; with an Email and
// Password the full login handshake is performed.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	ctx, span := tracer.Start(ctx, "NewSession")
	defer span.End()

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	s := &Session{
		BaseUrl:  baseUrl,
		Http:     client,
		email:    opts.Email,
		password: opts.Password,
	}

	switch {
	case opts.Token != "":
		err = s.resumeToken(ctx, opts.Token)
	case opts.Email != "" && opts.Password != "":
		err = s.login(ctx)
	default:
		err = ErrNoCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to establish session")
		return nil, err
	}
	return s, nil
}

// Token returns the current session token so callers can persist it and
// resume the session later. It is a bearer secret.
func (s *Session) Token() string {
	return s.cookieValue(rememberTokenCookie)
}

// AthleteId returns the id of the logged-in athlete.
func (s *Session) AthleteId() int64 {
	return s.athleteId
}

// resumeToken installs the session cookies from a token issued by a
// previous login. The token is a JWT; its signature cannot be verified
// locally but the expiry and subject claims are enough to reject stale
// or truncated tokens without a round trip.
func (s *Session) resumeToken(ctx context.Context, token string) error {
	_, span := tracer.Start(ctx, "session:resumeToken")
	defer span.End()

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse session token")
		return fmt.Errorf("%w: malformed session token: %s", ErrAuthentication, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fmt.Errorf("%w: session token has no expiry claim", ErrAuthentication)
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("%w: session token has expired", ErrAuthentication)
	}

	webId, err := subjectString(claims)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAuthentication, err)
	}
	athleteId, err := strconv.ParseInt(webId, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: session token subject is not an athlete id", ErrAuthentication)
	}

	s.athleteId = athleteId
	s.Http.GetClient().Jar.SetCookies(s.BaseUrl, []*http.Cookie{
		{
			Name:   rememberTokenCookie,
			Value:  token,
			Secure: s.BaseUrl.Scheme == "https",
		},
		{
			Name:   rememberIdCookie,
			Value:  webId,
			Secure: s.BaseUrl.Scheme == "https",
		},
	})
	return nil
}

// the site encodes the athlete id in the token subject, sometimes as a
// bare number
func subjectString(claims jwt.MapClaims) (string, error) {
	switch sub := claims["sub"].(type) {
	case string:
		return sub, nil
	case float64:
		return strconv.FormatInt(int64(sub), 10), nil
	default:
		return "", fmt.Errorf("session token has no subject claim")
	}
}

// login performs the credential handshake: fetch the csrf token pair,
// post the session form, and confirm the site handed back a session
// cookie instead of bouncing to the login page.
func (s *Session) login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session:login")
	defer span.End()

	param, token, err := s.Csrf(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch csrf token")
		return err
	}

	res, err := s.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":       s.email,
			"password":    s.password,
			"remember_me": "on",
			param:         token,
		}).
		Post(sessionPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		s.reset()
		return err
	}

	// a failed login lands back on the login page (or, without the
	// expected redirect, on the session endpoint itself)
	finalPath := res.RawResponse.Request.URL.Path
	if res.StatusCode() != http.StatusOK ||
		strings.HasSuffix(finalPath, loginPath) ||
		strings.HasSuffix(finalPath, sessionPath) {
		span.SetStatus(codes.Error, ErrLoginFailed.Error())
		s.reset()
		return ErrLoginFailed
	}

	webId := s.cookieValue(rememberIdCookie)
	if s.cookieValue(rememberTokenCookie) == "" || webId == "" {
		span.SetStatus(codes.Error, "login response did not set session cookies")
		s.reset()
		return ErrLoginFailed
	}
	athleteId, err := strconv.ParseInt(webId, 10, 64)
	if err != nil {
		s.reset()
		return parseError("athlete id cookie", err)
	}

	s.athleteId = athleteId
	return nil
}

// Csrf returns the csrf (param, token) pair required by the state-changing
// endpoints, fetching and caching it on first use.
func (s *Session) Csrf(ctx context.Context) (string, string, error) {
	if s.csrfParam != "" && s.csrfToken != "" {
		return s.csrfParam, s.csrfToken, nil
	}

	ctx, span := tracer.Start(ctx, "session:Csrf")
	defer span.End()

	res, err := s.Http.R().
		SetContext(ctx).
		Get(csrfPagePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch csrf page")
		return "", "", err
	}
	if res.StatusCode() != http.StatusOK {
		return "", "", requestError(res.StatusCode(), res.Request.URL)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return "", "", parseError("csrf page", err)
	}

	param := htmlutil.MetaContent(doc, "csrf-param")
	token := htmlutil.MetaContent(doc, "csrf-token")
	if param == "" || token == "" {
		span.SetStatus(codes.Error, "could not find csrf token")
		return "", "", parseError("csrf token", nil)
	}

	s.csrfParam, s.csrfToken = param, token
	return param, token, nil
}

// Do issues the request and, if the session was rejected, retries it
// exactly once behind a fresh credential login. Token-only sessions have
// nothing to re-login with, so the auth error is surfaced directly.
func (s *Session) Do(req *resty.Request, method, path string) (*resty.Response, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if !s.rejected(res) {
		return res, nil
	}
	if body := res.RawBody(); body != nil {
		body.Close()
	}

	if s.email == "" || s.password == "" {
		return nil, ErrSessionExpired
	}

	staleParam, staleToken := s.csrfParam, s.csrfToken
	s.reset()
	if err := s.login(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionExpired, err)
	}

	// the first execution merged the rejected session cookies into the
	// request's own header (resty aliases it into the raw request), so
	// the retry would send them ahead of the fresh jar cookies
	req.Header.Del("Cookie")

	// a csrf form field minted under the old session is stale too
	if staleParam != "" && req.FormData.Get(staleParam) == staleToken {
		param, token, err := s.Csrf(req.Context())
		if err != nil {
			return nil, err
		}
		req.FormData.Del(staleParam)
		req.FormData.Set(param, token)
	}

	res, err = req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if s.rejected(res) {
		if body := res.RawBody(); body != nil {
			body.Close()
		}
		return nil, ErrSessionExpired
	}
	return res, nil
}

// the site answers a stale session with a 401 on the xhr endpoints and
// with a redirect to the login page on the html ones
func (s *Session) rejected(res *resty.Response) bool {
	if res.StatusCode() == http.StatusUnauthorized {
		return true
	}
	return strings.HasSuffix(res.RawResponse.Request.URL.Path, loginPath)
}

// reset drops every piece of session state so a failed login can't leave
// a half-authenticated client behind.
func (s *Session) reset() {
	jar, _ := cookiejar.New(nil)
	s.Http.SetCookieJar(jar)
	s.csrfParam = ""
	s.csrfToken = ""
	s.athleteId = 0
}

func (s *Session) cookieValue(name string) string {
	for _, c := range s.Http.GetClient().Jar.Cookies(s.BaseUrl) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
