package web

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DataFormat selects the encoding of an exported activity or route:
// the file as originally uploaded, or a converted track format.
type DataFormat string

const (
	FormatOriginal DataFormat = "original"
	FormatGPX      DataFormat = "gpx"
	FormatTCX      DataFormat = "tcx"
)

func (f DataFormat) valid() bool {
	switch f {
	case FormatOriginal, FormatGPX, FormatTCX:
		return true
	}
	return false
}

// ExportFile is a server-named download. Data streams straight from the
// response body: read it to completion or Close it to release the
// underlying connection.
type ExportFile struct {
	Filename string
	Data     io.ReadCloser
}

// SinceBeginning is the Added value of components the site lists as
// installed "since beginning": a real but unknown date that predates
// every dated component.
var SinceBeginning = time.Unix(0, 0).UTC()

type BikeComponent struct {
	Id    string
	Type  string
	Brand string
	Model string
	// zero value means the site didn't report an install date
	Added time.Time
	// zero value means the component is still installed
	Removed time.Time
	// meters
	Distance float64
}

type FrameType int

const (
	FrameMountainBike FrameType = iota + 1
	FrameCrossBike
	FrameRoadBike
	FrameTimeTrialBike
)

var frameTypeNames = map[FrameType]string{
	FrameMountainBike:  "Mountain Bike",
	FrameCrossBike:     "Cross Bike",
	FrameRoadBike:      "Road Bike",
	FrameTimeTrialBike: "Time Trial Bike",
}

func (f FrameType) String() string {
	if name, ok := frameTypeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FrameType(%d)", int(f))
}

func frameTypeFromString(s string) FrameType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Replace(s, "tt ", "time trial ", 1)
	for ft, name := range frameTypeNames {
		if strings.ToLower(name) == s {
			return ft
		}
	}
	return 0
}

type BikeDetails struct {
	FrameType FrameType
	Brand     string
	Model     string
	// kilograms
	Weight     float64
	Components []BikeComponent
}

// Gear is a bike or a pair of shoes from the gear list endpoints.
type Gear struct {
	Id      string
	Name    string
	Primary bool
	Brand   string
	Model   string
	// meters
	Distance float64
}

// AthleteProfile is an athlete's public profile page. The page shows
// less to strangers than to the owner, so some fields stay zero
// depending on who is asking; the gear sidebar in particular is only
// rendered on other athletes' profiles.
type AthleteProfile struct {
	Id        int64
	Name      string
	City      string
	State     string
	Country   string
	AvatarUrl string
	Bikes     []Gear
	Shoes     []Gear
}

// ScrapedActivity is a row from the internal training-activities search
// endpoint. Field names line up with the official API's activity record
// where both exist.
type ScrapedActivity struct {
	Id            int64
	Name          string
	Type          string
	WorkoutType   string
	StartDate     time.Time
	Distance      float64
	MovingTime    time.Duration
	ElapsedTime   time.Duration
	ElevationGain float64
	GearId        string
	HasLatLng     bool
	Commute       bool
	Trainer       bool
	Private       bool
}

type KudoEntry struct {
	AthleteId int64
	Name      string
}

type Comment struct {
	Id          int64
	ActivityId  int64
	AthleteId   int64
	AthleteName string
	Text        string
	CreatedAt   time.Time
}

type FeedEntry struct {
	Id           string
	EntryType    string
	ActivityId   int64
	AthleteId    int64
	AthleteName  string
	Title        string
	StartTime    time.Time
	ActivityType string
}

// AthleteRef is a row from the follower/following lists.
type AthleteRef struct {
	Id       int64
	Name     string
	Location string
}

// component dates render like "Mar 21, 2019"
const componentDateLayout = "Jan 2, 2006"

func parseComponentDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if strings.EqualFold(s, "since beginning") {
		return SinceBeginning, nil
	}
	return time.Parse(componentDateLayout, s)
}

// distances render like "1,234.5 km" or "767.0 mi"
func parseComponentDistance(s string) (float64, error) {
	mul := 1000.0
	if strings.HasSuffix(s, "mi") {
		mul = 1609.34708
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimRight(s, " kmi"), ",", ""), 64)
	if err != nil {
		return 0, err
	}
	return v * mul, nil
}

// ComponentsOnDate filters a component history down to the parts that
// were on the bike on a given date: installed on or before it and not
// yet removed (a removal on the date itself counts as removed).
func ComponentsOnDate(components []BikeComponent, on time.Time) []BikeComponent {
	var out []BikeComponent
	for _, c := range components {
		if c.Added.After(on) {
			continue
		}
		if !c.Removed.IsZero() && !c.Removed.After(on) {
			continue
		}
		out = append(out, c)
	}
	return out
}
