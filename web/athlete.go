package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pR0Ps/stravaweblib/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Athlete scrapes an athlete's public profile page: name, location,
// avatar, and the gear sidebar with lifetime distances. The site only
// renders the sidebar on other athletes' profiles; the logged-in
// athlete's own gear comes from Bikes and Shoes instead.
func (c *Client) Athlete(ctx context.Context, athleteId int64) (*AthleteProfile, error) {
	ctx, span := tracer.Start(ctx, "client:Athlete")
	defer span.End()

	req := c.session.Http.R().SetContext(ctx)
	res, err := c.session.Do(req, http.MethodGet, fmt.Sprintf(athletePagePath, athleteId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch athlete page")
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
		return nil, parseError("athlete page", err)
	}

	// there are multiple headings depending on the level of access;
	// none at all means the page layout changed
	heading := doc.Find("div.profile-heading").First()
	if heading.Length() == 0 {
		return nil, parseError("athlete profile heading", nil)
	}

	profile := &AthleteProfile{Id: athleteId}
	profile.Name = htmlutil.CleanText(heading.Find("h1.athlete-name").First().Text())

	if location := heading.Find("div.location").First(); location.Length() > 0 {
		parts := strings.Split(htmlutil.CleanText(location.Text()), ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		switch len(parts) {
		case 3:
			profile.City, profile.State, profile.Country = parts[0], parts[1], parts[2]
		case 2:
			profile.City, profile.Country = parts[0], parts[1]
		case 1:
			profile.Country = parts[0]
		}
	}

	if avatar, ok := heading.Find("img.avatar-img").First().Attr("src"); ok {
		profile.AvatarUrl = avatar
	}

	var sidebarErr error
	doc.Find("div.section.stats.gear").EachWithBreak(func(_ int, section *goquery.Selection) bool {
		switch {
		case section.HasClass("bikes"):
			profile.Bikes, sidebarErr = parseGearSidebar(section, true)
		case section.HasClass("shoes"):
			profile.Shoes, sidebarErr = parseGearSidebar(section, false)
		}
		return sidebarErr == nil
	})
	if sidebarErr != nil {
		span.SetStatus(codes.Error, sidebarErr.Error())
		return nil, sidebarErr
	}

	return profile, nil
}

// the sidebar lists gear as (name, distance) rows; bike names link to
// the gear page, which is where the bike id comes from (shoes have no
// page and no id)
func parseGearSidebar(section *goquery.Selection, withIds bool) ([]Gear, error) {
	var gear []Gear
	var rowErr error
	section.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		name := cells.Eq(0)
		distance, err := strconv.ParseFloat(nonNumber.ReplaceAllString(cells.Eq(1).Text(), ""), 64)
		if err != nil {
			rowErr = parseError("gear sidebar distance", err)
			return false
		}

		g := Gear{
			Name: htmlutil.CleanText(name.Text()),
			// sidebar distances are km
			Distance: distance * 1000,
		}
		if href, ok := name.Find("a").First().Attr("href"); ok && withIds {
			g.Id = "b" + href[strings.LastIndex(href, "/")+1:]
		}
		gear = append(gear, g)
		return true
	})
	return gear, rowErr
}
