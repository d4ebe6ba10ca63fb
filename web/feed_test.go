package web

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFeed(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /dashboard/feed", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "following", r.URL.Query().Get("feed_type"))

		w.Header().Set("content-type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			w.Write([]byte(`{
				"entries": [
					{"id": "a1", "entry_type": "Activity", "activity_id": 42, "athlete_id": 111, "athlete_name": "Jane Doe", "title": "Morning Ride", "start_date_local": "2024-05-01T08:00:00Z", "activity_type": "Ride"}
				],
				"pagination": {"cursor": "page2", "has_more": true}
			}`))
		case "page2":
			w.Write([]byte(`{
				"entries": [
					{"id": "a2", "entry_type": "Activity", "activity_id": 43, "athlete_id": 222, "athlete_name": "John Smith", "title": "Lunch Run", "start_date_local": "2024-04-30T12:00:00Z", "activity_type": "Run"}
				],
				"pagination": {"cursor": "", "has_more": false}
			}`))
		default:
			http.Error(w, "bad cursor", http.StatusBadRequest)
		}
	})

	client := site.newClient(t)

	page, err := client.Feed(context.Background(), FeedOptions{})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	require.Equal(t, "page2", page.Cursor)

	want := []FeedEntry{{
		Id:           "a1",
		EntryType:    "Activity",
		ActivityId:   42,
		AthleteId:    111,
		AthleteName:  "Jane Doe",
		Title:        "Morning Ride",
		StartTime:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		ActivityType: "Ride",
	}}
	if diff := cmp.Diff(want, page.Entries); diff != "" {
		t.Errorf("feed entries mismatch (-want +got):\n%s", diff)
	}

	page, err = client.Feed(context.Background(), FeedOptions{Cursor: page.Cursor})
	require.NoError(t, err)
	require.False(t, page.HasMore)
	require.Len(t, page.Entries, 1)
	require.Equal(t, "a2", page.Entries[0].Id)
}

func TestFeedForAthlete(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /dashboard/feed", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "athlete", r.URL.Query().Get("feed_type"))
		require.Equal(t, "111", r.URL.Query().Get("athlete_id"))

		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"entries": [], "pagination": {"cursor": "", "has_more": false}}`))
	})

	client := site.newClient(t)
	page, err := client.Feed(context.Background(), FeedOptions{AthleteId: 111})
	require.NoError(t, err)
	require.Empty(t, page.Entries)
}

func TestFeedMalformed(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /dashboard/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>New dashboard!</body></html>"))
	})

	client := site.newClient(t)
	_, err := client.Feed(context.Background(), FeedOptions{})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

const followsPage = `<!DOCTYPE html>
<html>
<body>
<ul class="athletes">
  <li data-athlete-id="111">
    <a class="athlete-name" href="/athletes/111">Jane Doe</a>
    <div class="location">Squamish, BC</div>
  </li>
  <li data-athlete-id="222">
    <a class="athlete-name" href="/athletes/222">John Smith</a>
    <div class="location"></div>
  </li>
</ul>
</body>
</html>`

func TestFollowers(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /athletes/9384752/follows", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "followers", r.URL.Query().Get("type"))
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(followsPage))
	})

	client := site.newClient(t)
	refs, err := client.Followers(context.Background(), testAthleteId)
	require.NoError(t, err)

	want := []AthleteRef{
		{Id: 111, Name: "Jane Doe", Location: "Squamish, BC"},
		{Id: 222, Name: "John Smith", Location: ""},
	}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("followers mismatch (-want +got):\n%s", diff)
	}
}

func TestFollowing(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /athletes/111/follows", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "following", r.URL.Query().Get("type"))
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(followsPage))
	})

	client := site.newClient(t)
	refs, err := client.Following(context.Background(), 111)
	require.NoError(t, err)
	require.Len(t, refs, 2)
}
