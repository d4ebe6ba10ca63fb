package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"
)

// workout type ids the search endpoint understands, keyed by activity
// type then by label ("" is the unlabelled default)
var activityWorkoutTypes = map[string]map[string]int{
	"Ride": {"": 10, "Race": 11, "Workout": 12},
	"Run":  {"": 0, "Race": 1, "Long Run": 2, "Workout": 3},
}

type SearchOptions struct {
	// free text search
	Keywords string
	// activity type ("Ride", "Run", ...); required when filtering by
	// WorkoutType or GearId
	ActivityType string
	// workout type label ("Race", "Workout", ...)
	WorkoutType string
	// only activities using this gear
	GearId string
	// only commutes / private activities / trainer rides
	Commute bool
	Private bool
	Trainer bool
	// start date bounds (UTC)
	Before time.Time
	After  time.Time
	// maximum number of activities to yield, 0 means no limit
	Limit int
}

const activitiesPerPage = 20

// Activities starts a paginated search against the internal
// training-activities endpoint, newest first. The iterator proxies a
// remote cursor: it is bounded by the service page size per fetch and
// cannot be restarted once exhausted.
func (c *Client) Activities(ctx context.Context, opts SearchOptions) (*ActivityIterator, error) {
	_, span := tracer.Start(ctx, "client:Activities")
	defer span.End()

	workoutType := ""
	if types, ok := activityWorkoutTypes[opts.ActivityType]; ok {
		id, ok := types[opts.WorkoutType]
		if !ok {
			return nil, fmt.Errorf("invalid workout type %q for a %s", opts.WorkoutType, opts.ActivityType)
		}
		workoutType = strconv.Itoa(id)
	} else if opts.WorkoutType != "" || opts.GearId != "" {
		return nil, fmt.Errorf("filtering by workout type or gear requires one of: Ride, Run")
	}

	// the endpoint tracks each search session with an opaque id
	searchId, err := random.String(32)
	if err != nil {
		return nil, err
	}

	convBool := func(b bool) string {
		if b {
			return "true"
		}
		return ""
	}

	query := map[string]string{
		"search_session_id":  searchId,
		"keywords":           opts.Keywords,
		"new_activity_only":  "false",
		"activity_type":      opts.ActivityType,
		"workout_type":       workoutType,
		"commute":            convBool(opts.Commute),
		"private_activities": convBool(opts.Private),
		"trainer":            convBool(opts.Trainer),
		"gear":               opts.GearId,
		"per_page":           strconv.Itoa(activitiesPerPage),
		// newest first, so the time bounds can short-circuit
		"order": "start_date_local DESC",
	}

	return &ActivityIterator{
		client: c,
		query:  query,
		before: opts.Before,
		after:  opts.After,
		limit:  opts.Limit,
	}, nil
}

// ActivityIterator walks a remote search cursor page by page. Not safe
// for concurrent use and not restartable after exhaustion.
type ActivityIterator struct {
	client *Client
	query  map[string]string

	before time.Time
	after  time.Time
	limit  int

	page    int
	buffer  []ScrapedActivity
	yielded int
	done    bool
}

// Next returns the next matching activity. The boolean is false once the
// cursor is exhausted.
func (it *ActivityIterator) Next(ctx context.Context) (ScrapedActivity, bool, error) {
	for {
		if it.done {
			return ScrapedActivity{}, false, nil
		}
		if it.limit > 0 && it.yielded >= it.limit {
			it.done = true
			return ScrapedActivity{}, false, nil
		}

		if len(it.buffer) == 0 {
			if err := it.fetchPage(ctx); err != nil {
				it.done = true
				return ScrapedActivity{}, false, err
			}
			if it.done {
				return ScrapedActivity{}, false, nil
			}
		}

		activity := it.buffer[0]
		it.buffer = it.buffer[1:]

		// results are newest first: anything older than the lower bound
		// means the cursor is spent
		if !it.after.IsZero() && activity.StartDate.Before(it.after) {
			it.done = true
			return ScrapedActivity{}, false, nil
		}
		if !it.before.IsZero() && activity.StartDate.After(it.before) {
			continue
		}

		it.yielded++
		return activity, true, nil
	}
}

type activityRow struct {
	Id               int64   `json:"id"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	WorkoutType      *int    `json:"workout_type"`
	StartTime        string  `json:"start_time"`
	DistanceRaw      float64 `json:"distance_raw"`
	MovingTimeRaw    float64 `json:"moving_time_raw"`
	ElapsedTimeRaw   float64 `json:"elapsed_time_raw"`
	ElevationGainRaw float64 `json:"elevation_gain_raw"`
	BikeId           *int64  `json:"bike_id"`
	AthleteGearId    *int64  `json:"athlete_gear_id"`
	HasLatLng        bool    `json:"has_latlng"`
	Commute          bool    `json:"commute"`
	Trainer          bool    `json:"trainer"`
	Private          bool    `json:"private"`
}

func (it *ActivityIterator) fetchPage(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "iterator:fetchPage")
	defer span.End()

	it.page++
	it.query["page"] = strconv.Itoa(it.page)

	req := it.client.session.Http.R().
		SetContext(ctx).
		SetHeader("accept", "text/javascript, application/javascript, application/ecmascript, application/x-ecmascript").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetQueryParams(it.query)
	res, err := it.client.session.Do(req, http.MethodGet, trainingActivitiesPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch activity page")
		return err
	}
	if res.StatusCode() != http.StatusOK {
		return requestError(res.StatusCode(), res.Request.URL)
	}

	var payload struct {
		Models []activityRow `json:"models"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return parseError("activity search response", err)
	}

	if len(payload.Models) == 0 {
		it.done = true
		return nil
	}

	for _, row := range payload.Models {
		activity, err := row.toActivity()
		if err != nil {
			return err
		}
		it.buffer = append(it.buffer, activity)
	}
	return nil
}

func (r activityRow) toActivity() (ScrapedActivity, error) {
	startDate, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return ScrapedActivity{}, parseError("activity start time", err)
	}

	// translate workout type ids back to their labels
	workoutType := ""
	if r.WorkoutType != nil {
		for label, id := range activityWorkoutTypes[r.Type] {
			if id == *r.WorkoutType && label != "" {
				workoutType = label
				break
			}
		}
	}

	gearId := ""
	if r.BikeId != nil {
		gearId = fmt.Sprintf("b%d", *r.BikeId)
	} else if r.AthleteGearId != nil {
		gearId = fmt.Sprintf("g%d", *r.AthleteGearId)
	}

	return ScrapedActivity{
		Id:            r.Id,
		Name:          r.Name,
		Type:          r.Type,
		WorkoutType:   workoutType,
		StartDate:     startDate,
		Distance:      r.DistanceRaw,
		MovingTime:    time.Duration(r.MovingTimeRaw) * time.Second,
		ElapsedTime:   time.Duration(r.ElapsedTimeRaw) * time.Second,
		ElevationGain: r.ElevationGainRaw,
		GearId:        gearId,
		HasLatLng:     r.HasLatLng,
		Commute:       r.Commute,
		Trainer:       r.Trainer,
		Private:       r.Private,
	}, nil
}
