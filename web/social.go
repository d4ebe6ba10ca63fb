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

// Kudos lists the athletes that gave kudos to an activity. The endpoint
// returns an html fragment meant for the activity page's kudos popup.
func (c *Client) Kudos(ctx context.Context, activityId int64) ([]KudoEntry, error) {
	ctx, span := tracer.Start(ctx, "client:Kudos")
	defer span.End()

	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("x-requested-with", "XMLHttpRequest")
	res, err := c.session.Do(req, http.MethodGet, fmt.Sprintf(kudosListPath, activityId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch kudos list")
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
		return nil, parseError("kudos list", err)
	}
	// an activity with zero kudos still renders the (empty) list
	if doc.Find("ul.athletes").Length() == 0 {
		return nil, parseError("kudos list", nil)
	}

	var entries []KudoEntry
	var rowErr error
	doc.Find("ul.athletes li[data-athlete-id]").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		id, err := strconv.ParseInt(li.AttrOr("data-athlete-id", ""), 10, 64)
		if err != nil {
			rowErr = parseError("kudos athlete id", err)
			return false
		}
		entries = append(entries, KudoEntry{
			AthleteId: id,
			Name:      htmlutil.CleanText(li.Find("a.athlete-name").Text()),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return entries, nil
}

// GiveKudos gives kudos to an activity. Giving kudos twice is accepted
// by the site and has no effect.
func (c *Client) GiveKudos(ctx context.Context, activityId int64) error {
	ctx, span := tracer.Start(ctx, "client:GiveKudos")
	defer span.End()

	param, token, err := c.session.Csrf(ctx)
	if err != nil {
		return err
	}

	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetFormData(map[string]string{param: token})
	res, err := c.session.Do(req, http.MethodPost, fmt.Sprintf(kudoGivePath, activityId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to give kudos")
		return err
	}
	if res.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode() != http.StatusOK {
		return requestError(res.StatusCode(), res.Request.URL)
	}
	return nil
}

type commentRow struct {
	Id          int64  `json:"id"`
	ActivityId  int64  `json:"activity_id"`
	AthleteId   int64  `json:"athlete_id"`
	AthleteName string `json:"athlete_name"`
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp"`
}

func (r commentRow) toComment() (Comment, error) {
	createdAt, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return Comment{}, parseError("comment timestamp", err)
	}
	return Comment{
		Id:          r.Id,
		ActivityId:  r.ActivityId,
		AthleteId:   r.AthleteId,
		AthleteName: r.AthleteName,
		Text:        r.Text,
		CreatedAt:   createdAt,
	}, nil
}

// Comments lists the comments on an activity.
func (c *Client) Comments(ctx context.Context, activityId int64) ([]Comment, error) {
	ctx, span := tracer.Start(ctx, "client:Comments")
	defer span.End()

	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json")
	res, err := c.session.Do(req, http.MethodGet, fmt.Sprintf(commentsPath, activityId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch comments")
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode() != http.StatusOK {
		return nil, requestError(res.StatusCode(), res.Request.URL)
	}

	var rows []commentRow
	if err := json.Unmarshal(res.Body(), &rows); err != nil {
		return nil, parseError("comment list", err)
	}

	comments := make([]Comment, 0, len(rows))
	for _, row := range rows {
		comment, err := row.toComment()
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// PostComment posts a comment on an activity and returns it as the site
// recorded it.
func (c *Client) PostComment(ctx context.Context, activityId int64, text string) (*Comment, error) {
	ctx, span := tracer.Start(ctx, "client:PostComment")
	defer span.End()

	param, token, err := c.session.Csrf(ctx)
	if err != nil {
		return nil, err
	}

	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetFormData(map[string]string{
			"comment": text,
			param:     token,
		})
	res, err := c.session.Do(req, http.MethodPost, fmt.Sprintf(commentsPath, activityId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to post comment")
		return nil, err
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode() != http.StatusOK && res.StatusCode() != http.StatusCreated {
		return nil, requestError(res.StatusCode(), res.Request.URL)
	}

	var row commentRow
	if err := json.Unmarshal(res.Body(), &row); err != nil {
		return nil, parseError("posted comment", err)
	}
	comment, err := row.toComment()
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// LikeComment adds the logged-in athlete's reaction to a comment.
func (c *Client) LikeComment(ctx context.Context, commentId int64) error {
	return c.reactComment(ctx, commentId, http.MethodPost)
}

// UnlikeComment removes the logged-in athlete's reaction from a comment.
func (c *Client) UnlikeComment(ctx context.Context, commentId int64) error {
	return c.reactComment(ctx, commentId, http.MethodDelete)
}

func (c *Client) reactComment(ctx context.Context, commentId int64, method string) error {
	ctx, span := tracer.Start(ctx, "client:reactComment")
	defer span.End()

	param, token, err := c.session.Csrf(ctx)
	if err != nil {
		return err
	}

	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetFormData(map[string]string{param: token})
	res, err := c.session.Do(req, method, fmt.Sprintf(commentReactPath, commentId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to react to comment")
		return err
	}
	if res.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode() != http.StatusOK && res.StatusCode() != http.StatusCreated {
		return requestError(res.StatusCode(), res.Request.URL)
	}
	return nil
}
