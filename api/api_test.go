package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/pR0Ps/stravaweblib/lib/telemetry"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestMain(m *testing.M) {
	cleanup := telemetry.SetupForTesting("stravaweblib-api-test")
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func newFakeApi(t *testing.T, token string, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "Bearer "+token {
			w.Header().Set("content-type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "Authorization Error"}`))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAthlete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /athlete", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"id": 9384752, "username": "testathlete", "firstname": "Test", "lastname": "Athlete"}`))
	})
	server := newFakeApi(t, "token-abc", mux)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, AccessToken: "token-abc"})
	require.NoError(t, err)

	athlete, err := client.Athlete(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(9384752), athlete.Id)
	require.Equal(t, "testathlete", athlete.Username)
}

func TestTokenSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /athlete", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"id": 1}`))
	})
	server := newFakeApi(t, "from-source", mux)

	client, err := NewClient(ClientOptions{
		BaseUrl:     server.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "from-source"}),
	})
	require.NoError(t, err)

	_, err = client.Athlete(context.Background())
	require.NoError(t, err)
}

func TestBadToken(t *testing.T) {
	server := newFakeApi(t, "good", http.NewServeMux())

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, AccessToken: "bad"})
	require.NoError(t, err)

	_, err = client.Athlete(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	require.Equal(t, "Authorization Error", reqErr.Message)
}

func TestActivities(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("per_page"))
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`[{"id": 42, "name": "Morning Ride", "type": "Ride", "gear_id": "b123"}]`))
	})
	server := newFakeApi(t, "token", mux)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, AccessToken: "token"})
	require.NoError(t, err)

	activities, err := client.Activities(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.Equal(t, int64(42), activities[0].Id)
	require.Equal(t, "b123", activities[0].GearId)
}

func TestGearNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gear/b999", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Record Not Found"}`))
	})
	server := newFakeApi(t, "token", mux)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, AccessToken: "token"})
	require.NoError(t, err)

	_, err = client.Gear(context.Background(), "b999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNoCredentials(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}
