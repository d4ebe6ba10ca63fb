package web

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const kudosFragment = `<div class="kudos-popup">
<ul class="athletes">
  <li data-athlete-id="111"><a class="athlete-name" href="/athletes/111">Jane Doe</a></li>
  <li data-athlete-id="222"><a class="athlete-name" href="/athletes/222">John  Q.
    Smith</a></li>
</ul>
</div>`

func TestKudos(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /feed/activity/42/kudos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(kudosFragment))
	})

	client := site.newClient(t)
	entries, err := client.Kudos(context.Background(), 42)
	require.NoError(t, err)

	want := []KudoEntry{
		{AthleteId: 111, Name: "Jane Doe"},
		{AthleteId: 222, Name: "John Q. Smith"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("kudos mismatch (-want +got):\n%s", diff)
	}
}

// zero kudos still renders the (empty) list; only a missing list means
// the layout changed
func TestKudosEmpty(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /feed/activity/42/kudos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<div class="kudos-popup"><ul class="athletes"></ul></div>`))
	})
	site.handle("GET /feed/activity/43/kudos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<div class="kudos-popup">Nothing here</div>`))
	})

	client := site.newClient(t)

	entries, err := client.Kudos(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = client.Kudos(context.Background(), 43)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestGiveKudos(t *testing.T) {
	site := newFakeSite(t)
	site.handle("POST /activities/42/kudo", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, testCsrfToken, r.PostFormValue(testCsrfParam))
		w.Write([]byte(`{"success":"true"}`))
	})

	client := site.newClient(t)
	require.NoError(t, client.GiveKudos(context.Background(), 42))
}

func TestGiveKudosNotFound(t *testing.T) {
	site := newFakeSite(t)
	site.handle("POST /activities/999/kudo", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client := site.newClient(t)
	require.ErrorIs(t, client.GiveKudos(context.Background(), 999), ErrNotFound)
}

func TestComments(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /activities/42/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "activity_id": 42, "athlete_id": 111, "athlete_name": "Jane Doe", "text": "Nice ride!", "timestamp": "2024-05-01T10:00:00Z"},
			{"id": 2, "activity_id": 42, "athlete_id": 222, "athlete_name": "John Smith", "text": "Great pace", "timestamp": "2024-05-01T11:30:00Z"}
		]`))
	})

	client := site.newClient(t)
	comments, err := client.Comments(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	require.Equal(t, int64(1), comments[0].Id)
	require.Equal(t, "Jane Doe", comments[0].AthleteName)
	require.Equal(t, "Nice ride!", comments[0].Text)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), comments[0].CreatedAt)
}

func TestPostComment(t *testing.T) {
	site := newFakeSite(t)
	site.handle("POST /activities/42/comments", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, testCsrfToken, r.PostFormValue(testCsrfParam))
		require.Equal(t, "Looking strong!", r.PostFormValue("comment"))

		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 3, "activity_id": 42, "athlete_id": 9384752, "athlete_name": "Test Athlete", "text": "Looking strong!", "timestamp": "2024-05-01T12:00:00Z"}`))
	})

	client := site.newClient(t)
	comment, err := client.PostComment(context.Background(), 42, "Looking strong!")
	require.NoError(t, err)
	require.Equal(t, int64(3), comment.Id)
	require.Equal(t, "Looking strong!", comment.Text)
}

func TestCommentReactions(t *testing.T) {
	site := newFakeSite(t)

	var likes, unlikes int
	site.handle("POST /comments/3/reactions", func(w http.ResponseWriter, r *http.Request) {
		likes++
		w.Write([]byte(`{}`))
	})
	site.handle("DELETE /comments/3/reactions", func(w http.ResponseWriter, r *http.Request) {
		unlikes++
		w.Write([]byte(`{}`))
	})

	client := site.newClient(t)
	require.NoError(t, client.LikeComment(context.Background(), 3))
	require.NoError(t, client.UnlikeComment(context.Background(), 3))
	require.Equal(t, 1, likes)
	require.Equal(t, 1, unlikes)
}
