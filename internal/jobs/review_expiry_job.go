package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/tradehq/backflow/internal/repository"
)

// ReviewExpiryJob flips pending review requests past their expiry to
// expired so they stop cluttering the outreach list.
type ReviewExpiryJob struct {
	rr repository.ReviewRequestRepository
}

func NewReviewExpiryJob(rr repository.ReviewRequestRepository) *ReviewExpiryJob {
	return &ReviewExpiryJob{rr: rr}
}

func (j *ReviewExpiryJob) Run() {
	ctx := context.Background()

	n, err := j.rr.ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if n > 0 {
		slog.Info("expired review requests", "count", n)
	}
}
