package web

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const athletePage = `<!DOCTYPE html>
<html>
<body>
<div class="profile-heading">
	<h1 class="athlete-name">Jane   Q.
		Doe</h1>
	<div class="location">Squamish, BC, Canada</div>
	<img class="avatar-img" src="https://cdn.example.com/avatars/111.jpg" />
</div>
<div class="sidebar">
	<div class="section stats gear bikes">
		<h4>Bikes</h4>
		<table>
			<tr><td><a href="/bikes/123">Road Bike</a></td><td>1,234.5 km</td></tr>
			<tr><td><a href="/bikes/456">Commuter</a></td><td>88.0 km</td></tr>
		</table>
	</div>
	<div class="section stats gear shoes">
		<h4>Shoes</h4>
		<table>
			<tr><td>Trail Shoes</td><td>250.3 km</td></tr>
		</table>
	</div>
</div>
</body>
</html>`

func TestAthlete(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /athletes/111", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(athletePage))
	})
	client := site.newClient(t)

	profile, err := client.Athlete(context.Background(), 111)
	require.NoError(t, err)

	want := &AthleteProfile{
		Id:        111,
		Name:      "Jane Q. Doe",
		City:      "Squamish",
		State:     "BC",
		Country:   "Canada",
		AvatarUrl: "https://cdn.example.com/avatars/111.jpg",
		Bikes: []Gear{
			{Id: "b123", Name: "Road Bike", Distance: 1234500},
			{Id: "b456", Name: "Commuter", Distance: 88000},
		},
		Shoes: []Gear{
			{Name: "Trail Shoes", Distance: 250300},
		},
	}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("athlete profile mismatch (-want +got):\n%s", diff)
	}
}

// the logged-in athlete's own page has no gear sidebar
func TestAthleteOwnProfile(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /athletes/9384752", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(`<html><body>
			<div class="profile-heading">
				<h1 class="athlete-name">Me</h1>
			</div>
		</body></html>`))
	})
	client := site.newClient(t)

	profile, err := client.Athlete(context.Background(), testAthleteId)
	require.NoError(t, err)
	require.Equal(t, testAthleteId, profile.Id)
	require.Equal(t, "Me", profile.Name)
	require.Empty(t, profile.Bikes)
	require.Empty(t, profile.Shoes)
}

func TestAthleteNotFound(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /athletes/999", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	client := site.newClient(t)

	_, err := client.Athlete(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAthleteLayoutChanged(t *testing.T) {
	site := newFakeSite(t)
	site.handle("GET /athletes/111", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		w.Write([]byte("<html><body>nothing useful</body></html>"))
	})
	client := site.newClient(t)

	_, err := client.Athlete(context.Background(), 111)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
