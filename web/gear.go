package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/pR0Ps/stravaweblib/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

var nonNumber = regexp.MustCompile(`[^\d.]`)

// BikeDetails scrapes a bike's gear page: frame data plus the full
// component history table. Bike ids carry a "b" prefix to distinguish
// them from shoes.
func (c *Client) BikeDetails(ctx context.Context, bikeId string) (*BikeDetails, error) {
	ctx, span := tracer.Start(ctx, "client:BikeDetails")
	defer span.End()

	if !strings.HasPrefix(bikeId, "b") {
		return nil, fmt.Errorf("invalid bike id %q (must start with 'b')", bikeId)
	}

	req := c.session.Http.R().SetContext(ctx)
	res, err := c.session.Do(req, http.MethodGet, fmt.Sprintf(bikePath, strings.TrimPrefix(bikeId, "b")))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch bike page")
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
		return nil, parseError("bike details page", err)
	}

	details := &BikeDetails{}

	// the details table alternates label and value cells:
	// frame type, brand, model, weight
	var values []string
	doc.Find("div.gear-details table td").Each(func(i int, cell *goquery.Selection) {
		if i%2 == 1 {
			values = append(values, htmlutil.CleanText(cell.Text()))
		}
	})
	if len(values) < 4 {
		return nil, parseError("bike details table", nil)
	}
	details.FrameType = frameTypeFromString(values[0])
	details.Brand = values[1]
	details.Model = values[2]
	if weight, err := strconv.ParseFloat(nonNumber.ReplaceAllString(values[3], ""), 64); err == nil {
		details.Weight = weight
	}

	components, err := parseComponentTable(doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	details.Components = components

	return details, nil
}

// the component table is the only one on the page with a header row
func parseComponentTable(doc *goquery.Document) ([]BikeComponent, error) {
	table := doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
		return t.Find("thead").Length() > 0
	}).First()
	if table.Length() == 0 {
		return nil, parseError("bike component table", nil)
	}

	components := []BikeComponent{}
	var rowErr error
	table.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		// the site renders a single wide filler cell when there are no
		// active components
		if cells.Length() < 7 {
			return true
		}

		texts := make([]string, cells.Length())
		cells.Each(func(i int, cell *goquery.Selection) {
			texts[i] = htmlutil.CleanText(cell.Text())
		})

		added, err := parseComponentDate(texts[3])
		if err != nil {
			rowErr = parseError("component install date", err)
			return false
		}
		removed, err := parseComponentDate(texts[4])
		if err != nil {
			rowErr = parseError("component removal date", err)
			return false
		}
		distance, err := parseComponentDistance(texts[5])
		if err != nil {
			rowErr = parseError("component distance", err)
			return false
		}

		// the component id only appears in the delete link
		var componentId string
		cells.Eq(6).Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if !strings.EqualFold(strings.TrimSpace(a.Text()), "delete") {
				return true
			}
			href := a.AttrOr("href", "")
			componentId = href[strings.LastIndex(href, "/")+1:]
			return false
		})
		if componentId == "" {
			rowErr = parseError("component id", nil)
			return false
		}

		components = append(components, BikeComponent{
			Id:       componentId,
			Type:     texts[0],
			Brand:    texts[1],
			Model:    texts[2],
			Added:    added,
			Removed:  removed,
			Distance: distance,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return components, nil
}

type gearRow struct {
	Id            json.Number `json:"id"`
	Name          string      `json:"name"`
	DisplayName   string      `json:"display_name"`
	Default       bool        `json:"default"`
	TotalDistance string      `json:"total_distance"`
	BrandName     string      `json:"brand_name"`
	ModelName     string      `json:"model_name"`
}

func (r gearRow) toGear(idPrefix string) (Gear, error) {
	name := r.DisplayName
	if name == "" {
		name = r.Name
	}
	// distances come over as "1,234.5" kilometers
	distance, err := strconv.ParseFloat(strings.ReplaceAll(r.TotalDistance, ",", ""), 64)
	if err != nil {
		return Gear{}, parseError("gear distance", err)
	}
	return Gear{
		Id:       idPrefix + r.Id.String(),
		Name:     name,
		Primary:  r.Default,
		Brand:    r.BrandName,
		Model:    r.ModelName,
		Distance: distance * 1000,
	}, nil
}

// Bikes lists the logged-in athlete's bikes, ids prefixed with "b".
func (c *Client) Bikes(ctx context.Context) ([]Gear, error) {
	ctx, span := tracer.Start(ctx, "client:Bikes")
	defer span.End()
	return c.gearList(ctx, fmt.Sprintf(gearBikesPath, c.session.AthleteId()), "b")
}

// Shoes lists the logged-in athlete's shoes.
func (c *Client) Shoes(ctx context.Context) ([]Gear, error) {
	ctx, span := tracer.Start(ctx, "client:Shoes")
	defer span.End()
	return c.gearList(ctx, fmt.Sprintf(gearShoesPath, c.session.AthleteId()), "")
}

func (c *Client) gearList(ctx context.Context, path, idPrefix string) ([]Gear, error) {
	req := c.session.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json")
	res, err := c.session.Do(req, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, requestError(res.StatusCode(), res.Request.URL)
	}

	var rows []gearRow
	if err := json.Unmarshal(res.Body(), &rows); err != nil {
		return nil, parseError("gear list", err)
	}

	gear := make([]Gear, 0, len(rows))
	for _, row := range rows {
		g, err := row.toGear(idPrefix)
		if err != nil {
			return nil, err
		}
		gear = append(gear, g)
	}
	return gear, nil
}

// MatchGearName resolves a human-entered name to the closest gear
// record. Exact (case-insensitive) matches win; otherwise the highest
// Jaro-Winkler similarity above 0.8 is taken.
func MatchGearName(gear []Gear, name string) (Gear, bool) {
	for _, g := range gear {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}

	var best Gear
	var bestScore float64
	for _, g := range gear {
		score := matchr.JaroWinkler(strings.ToLower(g.Name), strings.ToLower(name), false)
		if score > bestScore {
			best = g
			bestScore = score
		}
	}
	if bestScore < 0.8 {
		return Gear{}, false
	}
	return best, true
}
