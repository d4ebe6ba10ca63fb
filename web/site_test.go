package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pR0Ps/stravaweblib/lib/telemetry"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("stravaweblib-web-test")
	code := m.Run()
	cleanup()
	os.Exit(code)
}

const (
	testEmail     = "athlete@example.com"
	testPassword  = "hunter2"
	testAthleteId = int64(9384752)
	testCsrfParam = "authenticity_token"
	testCsrfToken = "fake-csrf-token-1234"
)

const csrfPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta name="csrf-param" content="` + testCsrfParam + `" />
<meta name="csrf-token" content="%s" />
</head>
<body>About</body>
</html>`

// fakeSite stands in for the website: it serves the csrf page, handles
// the login handshake, and gates every registered endpoint behind the
// session cookie the handshake (or a resumed token) establishes.
type fakeSite struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server

	mu         sync.Mutex
	requests   int
	logins     int
	rejectOnce bool
	token      string
	password   string
	csrf       string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()

	s := &fakeSite{
		t:        t,
		mux:      http.NewServeMux(),
		password: testPassword,
		csrf:     testCsrfToken,
	}

	s.mux.HandleFunc("GET /about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		fmt.Fprintf(w, csrfPageTemplate, s.currentCsrf())
	})
	s.mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		fmt.Fprint(w, "<html><body>Log In</body></html>")
	})
	s.mux.HandleFunc("GET /dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		fmt.Fprint(w, "<html><body>Dashboard</body></html>")
	})
	s.mux.HandleFunc("POST /session", s.handleLogin)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		s.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.server.Close)

	return s
}

func (s *fakeSite) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	csrf := s.csrf
	password := s.password
	s.mu.Unlock()

	if r.PostFormValue(testCsrfParam) != csrf ||
		r.PostFormValue("email") != testEmail ||
		r.PostFormValue("password") != password {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	// each login mints a distinct token and retires the previous one,
	// the way the real site rotates the remember cookie
	s.mu.Lock()
	s.logins++
	token := makeUniqueSessionToken(s.t, testAthleteId, s.logins)
	s.token = token
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: rememberTokenCookie, Value: token, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: rememberIdCookie, Value: strconv.FormatInt(testAthleteId, 10), Path: "/"})
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// handle registers an endpoint that requires a live session, the way
// every site-internal endpoint does.
func (s *fakeSite) handle(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		reject := s.rejectOnce
		s.rejectOnce = false
		token := s.token
		s.mu.Unlock()

		if reject {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		cookie, err := r.Cookie(rememberTokenCookie)
		if err != nil || token == "" || cookie.Value != token {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		handler(w, r)
	})
}

// acceptToken makes the site treat a locally-built token as a live
// session.
func (s *fakeSite) acceptToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// rejectNextRequest makes the next authenticated request fail with a
// 401 as if the session had been revoked server-side.
func (s *fakeSite) rejectNextRequest() {
	s.mu.Lock()
	s.rejectOnce = true
	s.mu.Unlock()
}

// revokeSession retires the current session token, as if the athlete
// had logged out everywhere from another device.
func (s *fakeSite) revokeSession() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// setPassword changes the password the login handshake accepts.
func (s *fakeSite) setPassword(password string) {
	s.mu.Lock()
	s.password = password
	s.mu.Unlock()
}

// rotateCsrf replaces the csrf token the site serves and accepts.
func (s *fakeSite) rotateCsrf(token string) {
	s.mu.Lock()
	s.csrf = token
	s.mu.Unlock()
}

func (s *fakeSite) currentCsrf() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.csrf
}

func (s *fakeSite) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *fakeSite) loginCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *fakeSite) newSession(t *testing.T) *Session {
	t.Helper()
	session, err := NewSession(context.Background(), SessionOptions{
		BaseUrl:  s.server.URL,
		Email:    testEmail,
		Password: testPassword,
	})
	require.NoError(t, err)
	return session
}

func (s *fakeSite) newClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(s.newSession(t))
}

func makeSessionToken(t *testing.T, athleteId int64, expiry time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(athleteId, 10),
		"iat": time.Now().Unix(),
		"exp": expiry.Unix(),
	})
	signed, err := token.SignedString([]byte("not-the-real-signing-key"))
	require.NoError(t, err)
	return signed
}

// tokens minted within the same second would otherwise be identical,
// and a token rotation test needs them to differ
func makeUniqueSessionToken(t *testing.T, athleteId int64, serial int) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(athleteId, 10),
		"jti": strconv.Itoa(serial),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("not-the-real-signing-key"))
	require.NoError(t, err)
	return signed
}
