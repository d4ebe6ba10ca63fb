package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pR0Ps/stravaweblib/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// FeedOptions controls which feed is fetched and from where to resume.
type FeedOptions struct {
	// AthleteId selects a single athlete's feed instead of the
	// following feed of the logged-in athlete.
	AthleteId int64
	// Before limits the feed to entries older than the given time.
	Before time.Time
	// Cursor resumes fetching from where a previous page left off.
	// Use the Cursor of the returned FeedPage.
	Cursor string
}

// FeedPage is one page of feed entries plus the cursor to fetch the next.
type FeedPage struct {
	Entries []FeedEntry
	Cursor  string
	HasMore bool
}

type feedEntryRow struct {
	Id           string `json:"id"`
	EntryType    string `json:"entry_type"`
	ActivityId   int64  `json:"activity_id"`
	AthleteId    int64  `json:"athlete_id"`
	AthleteName  string `json:"athlete_name"`
	Title        string `json:"title"`
	StartTime    string `json:"start_date_local"`
	ActivityType string `json:"activity_type"`
}

type feedPayload struct {
	Entries    []feedEntryRow `json:"entries"`
	Pagination struct {
		Cursor  string `json:"cursor"`
		HasMore bool   `json:"has_more"`
	} `json:"pagination"`
}

// Feed fetches one page of the dashboard feed. Pass the returned page's
// Cursor in the next call's options to continue.
func (c *Client) Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error) {
	ctx, span := tracer.Start(ctx, "client:Feed")
	defer span.End()

	query := map[string]string{
		"feed_type": "following",
	}
	if opts.AthleteId != 0 {
		query["feed_type"] = "athlete"
		query["athlete_id"] = strconv.FormatInt(opts.AthleteId, 10)
	}
	if !opts.Before.IsZero() {
		query["before"] = strconv.FormatInt(opts.Before.Unix(), 10)
	}
	if opts.Cursor != "" {
		query["cursor"] = opts.Cursor
	}

	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetQueryParams(query)
	res, err := c.session.Do(req, http.MethodGet, dashboardFeedPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch feed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, requestError(res.StatusCode(), res.Request.URL)
	}

	var payload feedPayload
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return nil, parseError("feed page", err)
	}

	page := &FeedPage{
		Entries: make([]FeedEntry, 0, len(payload.Entries)),
		Cursor:  payload.Pagination.Cursor,
		HasMore: payload.Pagination.HasMore,
	}
	for _, row := range payload.Entries {
		var startTime time.Time
		if row.StartTime != "" {
			startTime, err = time.Parse(time.RFC3339, row.StartTime)
			if err != nil {
				return nil, parseError("feed entry time", err)
			}
		}
		page.Entries = append(page.Entries, FeedEntry{
			Id:           row.Id,
			EntryType:    row.EntryType,
			ActivityId:   row.ActivityId,
			AthleteId:    row.AthleteId,
			AthleteName:  row.AthleteName,
			Title:        row.Title,
			StartTime:    startTime,
			ActivityType: row.ActivityType,
		})
	}
	return page, nil
}

// Followers lists the athletes following the given athlete.
func (c *Client) Followers(ctx context.Context, athleteId int64) ([]AthleteRef, error) {
	return c.follows(ctx, athleteId, "followers")
}

// Following lists the athletes the given athlete follows.
func (c *Client) Following(ctx context.Context, athleteId int64) ([]AthleteRef, error) {
	return c.follows(ctx, athleteId, "following")
}

func (c *Client) follows(ctx context.Context, athleteId int64, kind string) ([]AthleteRef, error) {
	ctx, span := tracer.Start(ctx, "client:follows")
	defer span.End()

	req := c.session.Http.R().
		SetContext(ctx).
		SetQueryParam("type", kind)
	res, err := c.session.Do(req, http.MethodGet, fmt.Sprintf(followsPath, athleteId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch follows")
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode() != http.StatusOK {
		return nil, requestError(res.StatusCode(), res.Request.URL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, parseError("follows list", err)
	}
	container := doc.Find("ul.athletes")
	if container.Length() == 0 {
		return nil, parseError("follows list", nil)
	}

	var refs []AthleteRef
	var rowErr error
	container.Find("li[data-athlete-id]").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		id, err := strconv.ParseInt(li.AttrOr("data-athlete-id", ""), 10, 64)
		if err != nil {
			rowErr = parseError("follows athlete id", err)
			return false
		}
		refs = append(refs, AthleteRef{
			Id:       id,
			Name:     htmlutil.CleanText(li.Find("a.athlete-name").Text()),
			Location: htmlutil.CleanText(li.Find(".location").Text()),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return refs, nil
}
