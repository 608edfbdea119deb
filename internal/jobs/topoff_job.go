package job

import (
	"context"
	"log/slog"

	"github.com/tradehq/backflow/internal/service"
)

// TopoffCronSpec fires the sweep daily at 02:00 local, after the day's
// posts have gone out and before anyone looks at the calendar.
const TopoffCronSpec = "0 0 2 * * *"

// TopoffJob runs the nightly planning sweep that keeps every active
// account's calendar filled out to the horizon.
type TopoffJob struct {
	ts          service.TopoffService
	horizonDays int
}

func NewTopoffJob(ts service.TopoffService, horizonDays int) *TopoffJob {
	return &TopoffJob{
		ts:          ts,
		horizonDays: horizonDays,
	}
}

func (j *TopoffJob) Run() {
	ctx := context.Background()

	if err := j.ts.TopoffAll(ctx, j.horizonDays); err != nil {
		slog.Info(err.Error())
	}
}
