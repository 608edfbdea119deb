package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehq/backflow/internal/models"
)

func TestReviewRequestLifecycle(t *testing.T) {
	rr := newMemReviewRepo()
	svc := NewReviewService(rr)

	id, err := svc.Create(context.Background(), "t1", "Dana", "dana@example.com")
	require.NoError(t, err)

	req := rr.requests[id]
	assert.Equal(t, models.ReviewRequestPending, req.Status)
	assert.True(t, req.ExpiresAt.After(time.Now().UTC().Add(13*24*time.Hour)))

	// Completing before the send is a guard violation.
	err = svc.Complete(context.Background(), "t1", id)
	assert.True(t, IsValidation(err))

	require.NoError(t, svc.MarkSent(context.Background(), "t1", id))
	assert.Equal(t, models.ReviewRequestSent, req.Status)
	assert.True(t, req.SentAt.Valid)

	// Sending twice is rejected.
	err = svc.MarkSent(context.Background(), "t1", id)
	assert.True(t, IsValidation(err))

	require.NoError(t, svc.Complete(context.Background(), "t1", id))
	assert.Equal(t, models.ReviewRequestCompleted, req.Status)
}

func TestReviewCreateValidation(t *testing.T) {
	svc := NewReviewService(newMemReviewRepo())

	_, err := svc.Create(context.Background(), "t1", "", "dana@example.com")
	assert.True(t, IsValidation(err))

	_, err = svc.Create(context.Background(), "t1", "Dana", "")
	assert.True(t, IsValidation(err))
}
