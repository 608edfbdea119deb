package queue

import (
	job "github.com/tradehq/backflow/internal/jobs"
	"github.com/tradehq/backflow/internal/repository"
)

type Queue struct {
	pi repository.PostInstanceRepository
	ci repository.ContentItemRepository
	ca repository.ChannelAccountRepository
	rr repository.ReviewRequestRepository
	ap *job.Autoposter
}

func NewQueue(
	pi repository.PostInstanceRepository,
	ci repository.ContentItemRepository,
	ca repository.ChannelAccountRepository,
	rr repository.ReviewRequestRepository,
	ap *job.Autoposter) *Queue {
	return &Queue{
		pi: pi,
		ci: ci,
		ca: ca,
		rr: rr,
		ap: ap,
	}
}

const (
	TaskTypeSendReviewRequest = "review:send"
	TaskTypePublishNow        = "post:publish_now"
)

type SendReviewRequestPayload struct {
	TenantID  string `json:"tenant_id"`
	RequestID int64  `json:"request_id"`
}

type PublishNowPayload struct {
	TenantID   string `json:"tenant_id"`
	InstanceID int64  `json:"instance_id"`
}
