package web

// Paths of the site-internal endpoints this package talks to. None of
// these are part of the published API; they were collected by watching
// browser traffic and can change without notice. When responses stop
// parsing, re-verify this block against the live site first.
const (
	// small page that renders the csrf <meta> tags the same way whether
	// or not the session is logged in
	csrfPagePath = "/about"

	loginPath   = "/login"
	sessionPath = "/session"

	activityPath       = "/activities/%d"
	activityExportPath = "/activities/%d/export_%s"
	routeExportPath    = "/routes/%d/export_%s"

	bikePath      = "/bikes/%s"
	gearBikesPath = "/athletes/%d/gear/bikes"
	gearShoesPath = "/athletes/%d/gear/shoes"

	trainingActivitiesPath = "/athlete/training_activities"
	trainingPagePath       = "/athlete/training"

	kudosListPath    = "/feed/activity/%d/kudos"
	kudoGivePath     = "/activities/%d/kudo"
	commentsPath     = "/activities/%d/comments"
	commentReactPath = "/comments/%d/reactions"

	dashboardFeedPath = "/dashboard/feed"
	followsPath       = "/athletes/%d/follows"
	athletePagePath   = "/athletes/%d"
)
