package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradehq/backflow/internal/models"
)

type lifecycleFixture struct {
	svc LifecycleService
	pi  *memInstanceRepo
	ci  *memItemRepo
	pj  *memJobRepo
	tr  *memTransitionRepo
}

func newLifecycleFixture() *lifecycleFixture {
	pi := newMemInstanceRepo()
	ci := newMemItemRepo()
	pj := newMemJobRepo()
	tr := &memTransitionRepo{}
	return &lifecycleFixture{
		svc: NewLifecycleService(pi, ci, pj, tr),
		pi:  pi,
		ci:  ci,
		pj:  pj,
		tr:  tr,
	}
}

func (f *lifecycleFixture) instance(status string) *models.PostInstance {
	return f.pi.add(&models.PostInstance{
		TenantID:         "t1",
		ChannelAccountID: 1,
		Status:           status,
		ScheduledFor:     sql.NullTime{Time: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC), Valid: true},
		AutopostEnabled:  true,
	})
}

func (f *lifecycleFixture) item(reviewer bool) *models.ContentItem {
	item := &models.ContentItem{
		TenantID:        "t1",
		Title:           "Spring tune-up special",
		BaseCaption:     "Book a spring tune-up before the rush.",
		ContentCategory: models.CategoryPromo,
		Status:          models.ItemStatusDraft,
	}
	if reviewer {
		item.ReviewerID = sql.NullInt64{Int64: 7, Valid: true}
	}
	f.ci.Create(context.Background(), item)
	return item
}

func TestTransitionAllowed(t *testing.T) {
	allowed := [][2]string{
		{models.InstanceStatusPlanned, models.InstanceStatusDraft},
		{models.InstanceStatusDraft, models.InstanceStatusNeedsApproval},
		{models.InstanceStatusDraft, models.InstanceStatusScheduled},
		{models.InstanceStatusNeedsApproval, models.InstanceStatusApproved},
		{models.InstanceStatusApproved, models.InstanceStatusScheduled},
		{models.InstanceStatusScheduled, models.InstanceStatusPosted},
		{models.InstanceStatusScheduled, models.InstanceStatusFailed},
		{models.InstanceStatusFailed, models.InstanceStatusScheduled},
	}
	for _, pair := range allowed {
		assert.True(t, TransitionAllowed(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]string{
		{models.InstanceStatusPlanned, models.InstanceStatusScheduled},
		{models.InstanceStatusPlanned, models.InstanceStatusPosted},
		{models.InstanceStatusNeedsApproval, models.InstanceStatusScheduled},
		{models.InstanceStatusPosted, models.InstanceStatusScheduled},
		{models.InstanceStatusPosted, models.InstanceStatusFailed},
		{models.InstanceStatusFailed, models.InstanceStatusPosted},
	}
	for _, pair := range denied {
		assert.False(t, TransitionAllowed(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestResolveCaption(t *testing.T) {
	item := &models.ContentItem{BaseCaption: "base"}

	caption, err := ResolveCaption(&models.PostInstance{CaptionOverride: "override"}, item)
	require.NoError(t, err)
	assert.Equal(t, "override", caption)

	caption, err = ResolveCaption(&models.PostInstance{}, item)
	require.NoError(t, err)
	assert.Equal(t, "base", caption)

	_, err = ResolveCaption(&models.PostInstance{}, nil)
	assert.True(t, IsValidation(err))
}

func TestBindContentMovesPlannedToDraft(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusPlanned)
	item := f.item(false)

	err := f.svc.BindContent(context.Background(), "t1", inst.ID, item.ID, "user:1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusDraft, inst.Status)
	require.True(t, inst.ContentItemID.Valid)
	assert.Equal(t, item.ID, inst.ContentItemID.Int64)

	history, err := f.svc.History(context.Background(), "t1", inst.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.InstanceStatusPlanned, history[0].FromStatus)
	assert.Equal(t, models.InstanceStatusDraft, history[0].ToStatus)
	assert.Equal(t, "user:1", history[0].Actor)
}

func TestBindContentRejectsNonPlanned(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusScheduled)
	item := f.item(false)

	err := f.svc.BindContent(context.Background(), "t1", inst.ID, item.ID, "user:1")
	assert.True(t, IsValidation(err))
}

func TestBindContentRejectsMissingItem(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusPlanned)

	err := f.svc.BindContent(context.Background(), "t1", inst.ID, 404, "user:1")
	assert.True(t, IsValidation(err))
	assert.Equal(t, models.InstanceStatusPlanned, inst.Status)
}

func TestSubmitForApprovalRequiresCaption(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusDraft)

	err := f.svc.SubmitForApproval(context.Background(), "t1", inst.ID, "user:1")
	assert.True(t, IsValidation(err))
	assert.Equal(t, models.InstanceStatusDraft, inst.Status)

	inst.CaptionOverride = "Look at this finished repipe."
	err = f.svc.SubmitForApproval(context.Background(), "t1", inst.ID, "user:1")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusNeedsApproval, inst.Status)
}

func TestApproveRequiresReviewer(t *testing.T) {
	f := newLifecycleFixture()

	noReviewer := f.item(false)
	inst := f.instance(models.InstanceStatusNeedsApproval)
	inst.ContentItemID = sql.NullInt64{Int64: noReviewer.ID, Valid: true}

	err := f.svc.Approve(context.Background(), "t1", inst.ID, "user:2")
	assert.True(t, IsValidation(err))

	reviewed := f.item(true)
	inst.ContentItemID = sql.NullInt64{Int64: reviewed.ID, Valid: true}
	err = f.svc.Approve(context.Background(), "t1", inst.ID, "user:2")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusApproved, inst.Status)
}

func TestScheduleFromApprovedAndDraft(t *testing.T) {
	f := newLifecycleFixture()
	at := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)

	approved := f.instance(models.InstanceStatusApproved)
	approved.CaptionOverride = "caption"
	require.NoError(t, f.svc.Schedule(context.Background(), "t1", approved.ID, at, "user:1"))
	assert.Equal(t, models.InstanceStatusScheduled, approved.Status)
	assert.Equal(t, at, approved.ScheduledFor.Time)

	// Tenants without an approval step schedule straight from draft.
	draft := f.instance(models.InstanceStatusDraft)
	draft.CaptionOverride = "caption"
	require.NoError(t, f.svc.Schedule(context.Background(), "t1", draft.ID, at, "user:1"))
	assert.Equal(t, models.InstanceStatusScheduled, draft.Status)

	pending := f.instance(models.InstanceStatusNeedsApproval)
	pending.CaptionOverride = "caption"
	err := f.svc.Schedule(context.Background(), "t1", pending.ID, at, "user:1")
	assert.True(t, IsValidation(err))
}

func TestScheduleRequiresCaption(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusApproved)

	err := f.svc.Schedule(context.Background(), "t1", inst.ID,
		time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC), "user:1")
	assert.True(t, IsValidation(err))
}

func TestMarkPostedRecordsManualJob(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusScheduled)
	postedAt := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)

	err := f.svc.MarkPosted(context.Background(), "t1", inst.ID, postedAt,
		"https://www.facebook.com/123", "user:1")
	require.NoError(t, err)

	assert.Equal(t, models.InstanceStatusPosted, inst.Status)
	assert.True(t, inst.PostedManually)
	assert.Equal(t, "https://www.facebook.com/123", inst.PostURL)
	assert.Equal(t, postedAt, inst.PostedAt.Time)

	require.True(t, inst.PublishJobID.Valid)
	job := f.pj.jobs[inst.PublishJobID.Int64]
	require.NotNil(t, job)
	assert.Equal(t, models.JobMethodManual, job.Method)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.AttemptNo)
}

func TestMarkPostedRejectsUnscheduled(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusDraft)

	err := f.svc.MarkPosted(context.Background(), "t1", inst.ID,
		time.Now().UTC(), "", "user:1")
	assert.True(t, IsValidation(err))
	assert.Empty(t, f.pj.jobs)
}

func TestMarkFailedAndRetry(t *testing.T) {
	f := newLifecycleFixture()
	inst := f.instance(models.InstanceStatusScheduled)

	require.NoError(t, f.svc.MarkFailed(context.Background(), "t1", inst.ID, "page token expired", "user:1"))
	assert.Equal(t, models.InstanceStatusFailed, inst.Status)
	assert.Equal(t, "page token expired", inst.LastError)

	require.NoError(t, f.svc.Retry(context.Background(), "t1", inst.ID, "user:1"))
	assert.Equal(t, models.InstanceStatusScheduled, inst.Status)
	assert.Empty(t, inst.LastError)

	history, err := f.svc.History(context.Background(), "t1", inst.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestDeleteRefusesPosted(t *testing.T) {
	f := newLifecycleFixture()

	posted := f.instance(models.InstanceStatusPosted)
	err := f.svc.Delete(context.Background(), "t1", posted.ID)
	assert.True(t, IsValidation(err))

	draft := f.instance(models.InstanceStatusDraft)
	require.NoError(t, f.svc.Delete(context.Background(), "t1", draft.ID))
	_, ok := f.pi.instances[draft.ID]
	assert.False(t, ok)
}

func TestLifecycleUnknownInstance(t *testing.T) {
	f := newLifecycleFixture()

	err := f.svc.Approve(context.Background(), "t1", 404, "user:1")
	assert.ErrorIs(t, err, ErrNotFound)
}
