package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

func EnqueueReviewRequest(asynqClient *asynq.Client, payload SendReviewRequestPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSendReviewRequest, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	return err
}

func EnqueuePublishNow(asynqClient *asynq.Client, payload PublishNowPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishNow, taskPayload)

	_, err = asynqClient.Enqueue(task)
	return err
}
