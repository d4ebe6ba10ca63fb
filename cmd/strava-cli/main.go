package main

import (
	"context"

	"github.com/pR0Ps/stravaweblib/cmd/strava-cli/commands"
	"github.com/pR0Ps/stravaweblib/lib/telemetry"
)

func main() {
	ctx := context.Background()
	telemetry.SetupFromEnv(ctx, "strava-cli")
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
