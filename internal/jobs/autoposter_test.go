package job

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tradehq/backflow/configs"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/publisher"
	"github.com/tradehq/backflow/internal/repository"
)

type stubInstanceRepo struct {
	repository.PostInstanceRepository

	instances map[int64]*models.PostInstance
	due       []*models.DuePost
}

func newStubInstanceRepo() *stubInstanceRepo {
	return &stubInstanceRepo{instances: make(map[int64]*models.PostInstance)}
}

func (s *stubInstanceRepo) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	return s.due, nil
}

func (s *stubInstanceRepo) Transition(ctx context.Context, tenantID string, id int64, from, to string, mutate func(*repository.UpdateSet)) error {
	inst, ok := s.instances[id]
	if !ok || inst.TenantID != tenantID || inst.Status != from {
		return repository.ErrStatusConflict
	}
	inst.Status = to
	if mutate != nil {
		set := &repository.UpdateSet{}
		mutate(set)
		set.Each(func(col string, val interface{}) {
			switch col {
			case "posted_at":
				inst.PostedAt = sql.NullTime{Time: val.(time.Time), Valid: true}
			case "post_url":
				inst.PostURL = val.(string)
			case "posted_manually":
				inst.PostedManually = val.(bool)
			case "last_error":
				inst.LastError = val.(string)
			case "publish_job_id":
				inst.PublishJobID = sql.NullInt64{Int64: val.(int64), Valid: true}
			}
		})
	}
	return nil
}

type stubJobRepo struct {
	repository.PublishJobRepository

	jobs map[int64]*models.PublishJob
	next int64
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: make(map[int64]*models.PublishJob)}
}

func (s *stubJobRepo) Create(ctx context.Context, j *models.PublishJob) (int64, error) {
	attempt := 0
	for _, existing := range s.jobs {
		if existing.PostInstanceID == j.PostInstanceID && existing.AttemptNo > attempt {
			attempt = existing.AttemptNo
		}
	}
	s.next++
	j.ID = s.next
	j.AttemptNo = attempt + 1
	s.jobs[j.ID] = j
	return j.ID, nil
}

func (s *stubJobRepo) MarkCompleted(ctx context.Context, id int64, responseRef string) error {
	s.jobs[id].Status = models.JobStatusCompleted
	s.jobs[id].ResponseRef = responseRef
	return nil
}

func (s *stubJobRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	s.jobs[id].Status = models.JobStatusFailed
	s.jobs[id].ErrorMessage = errorMessage
	return nil
}

func (s *stubJobRepo) only() *models.PublishJob {
	for _, j := range s.jobs {
		return j
	}
	return nil
}

type stubChannelRepo struct {
	repository.ChannelRepository

	channels map[string]*models.MarketingChannel
}

func (s *stubChannelRepo) GetByKey(ctx context.Context, key string) (*models.MarketingChannel, error) {
	return s.channels[key], nil
}

type stubPublisher struct {
	connected bool
	result    *publisher.Result
	err       error
	calls     int
}

func (p *stubPublisher) IsConnected(acc *models.ChannelAccount) bool { return p.connected }

func (p *stubPublisher) Publish(ctx context.Context, caption string, mediaURLs []string, acc *models.ChannelAccount) (*publisher.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type autoposterFixture struct {
	ap  *Autoposter
	pi  *stubInstanceRepo
	pj  *stubJobRepo
	pub *stubPublisher
}

func newAutoposterFixture(pub *stubPublisher) *autoposterFixture {
	pi := newStubInstanceRepo()
	pj := newStubJobRepo()
	ch := &stubChannelRepo{channels: map[string]*models.MarketingChannel{
		models.ChannelFacebookPage: {ChannelKey: models.ChannelFacebookPage, SupportsAutopost: true},
		models.ChannelNextdoor:     {ChannelKey: models.ChannelNextdoor, SupportsAutopost: false},
	}}

	registry := publisher.NewRegistry()
	registry.Register(models.ChannelFacebookPage, pub)

	cfg := &config.Config{CheckIntervalSecs: 60, PublishTimeoutSecs: 5}
	ap := NewAutoposter(cfg, pi, pj, ch, registry)
	ap.now = func() time.Time { return time.Date(2026, 3, 5, 9, 5, 0, 0, time.UTC) }

	return &autoposterFixture{ap: ap, pi: pi, pj: pj, pub: pub}
}

func (f *autoposterFixture) duePost(channelKey string) *models.DuePost {
	inst := &models.PostInstance{
		ID:               1,
		TenantID:         "t1",
		ChannelAccountID: 1,
		ContentItemID:    sql.NullInt64{Int64: 1, Valid: true},
		ScheduledFor:     sql.NullTime{Time: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC), Valid: true},
		Status:           models.InstanceStatusScheduled,
		AutopostEnabled:  true,
	}
	f.pi.instances[inst.ID] = inst

	return &models.DuePost{
		Instance:  *inst,
		Item:      models.ContentItem{ID: 1, TenantID: "t1", BaseCaption: "Spring tune-up special"},
		MediaURLs: []string{"https://cdn.example.com/a.jpg"},
		Account: models.ChannelAccount{
			ID:         1,
			TenantID:   "t1",
			ChannelKey: channelKey,
			Connected:  true,
		},
	}
}

func TestAutoposterPublishSuccess(t *testing.T) {
	pub := &stubPublisher{
		connected: true,
		result:    &publisher.Result{URL: "https://www.facebook.com/page/1", ID: "fb-1"},
	}
	f := newAutoposterFixture(pub)
	f.pi.due = []*models.DuePost{f.duePost(models.ChannelFacebookPage)}

	f.ap.RunOnce(context.Background())

	assert.Equal(t, 1, pub.calls)

	inst := f.pi.instances[1]
	assert.Equal(t, models.InstanceStatusPosted, inst.Status)
	assert.Equal(t, "https://www.facebook.com/page/1", inst.PostURL)
	assert.False(t, inst.PostedManually)
	assert.True(t, inst.PostedAt.Valid)
	assert.Empty(t, inst.LastError)

	job := f.pj.only()
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, models.JobMethodAPI, job.Method)
	assert.Equal(t, models.ChannelFacebookPage, job.Provider)
	assert.Equal(t, "fb-1", job.ResponseRef)
	require.True(t, inst.PublishJobID.Valid)
	assert.Equal(t, job.ID, inst.PublishJobID.Int64)
}

func TestAutoposterPublishFailure(t *testing.T) {
	pub := &stubPublisher{connected: true, err: errors.New("page token expired")}
	f := newAutoposterFixture(pub)
	f.pi.due = []*models.DuePost{f.duePost(models.ChannelFacebookPage)}

	f.ap.RunOnce(context.Background())

	inst := f.pi.instances[1]
	assert.Equal(t, models.InstanceStatusFailed, inst.Status)
	assert.Equal(t, "page token expired", inst.LastError)

	job := f.pj.only()
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "page token expired", job.ErrorMessage)
	require.True(t, inst.PublishJobID.Valid)
	assert.Equal(t, job.ID, inst.PublishJobID.Int64)
}

func TestAutoposterSkipsManualOnlyChannels(t *testing.T) {
	pub := &stubPublisher{connected: true}
	f := newAutoposterFixture(pub)
	f.pi.due = []*models.DuePost{f.duePost(models.ChannelNextdoor)}

	f.ap.RunOnce(context.Background())

	assert.Equal(t, 0, pub.calls)
	assert.Equal(t, models.InstanceStatusScheduled, f.pi.instances[1].Status)
	assert.Empty(t, f.pj.jobs, "no attempt is recorded for manual-only channels")
}

func TestAutoposterFailsDisconnectedAccount(t *testing.T) {
	pub := &stubPublisher{connected: false}
	f := newAutoposterFixture(pub)
	f.pi.due = []*models.DuePost{f.duePost(models.ChannelFacebookPage)}

	f.ap.RunOnce(context.Background())

	assert.Equal(t, 0, pub.calls)
	inst := f.pi.instances[1]
	assert.Equal(t, models.InstanceStatusFailed, inst.Status)
	assert.Equal(t, "channel account is not connected", inst.LastError)

	// Even pre-flight failures leave an auditable attempt.
	job := f.pj.only()
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "channel account is not connected", job.ErrorMessage)
	require.True(t, inst.PublishJobID.Valid)
	assert.Equal(t, job.ID, inst.PublishJobID.Int64)
}

func TestAutoposterFailsOnMissingCaption(t *testing.T) {
	pub := &stubPublisher{connected: true}
	f := newAutoposterFixture(pub)
	due := f.duePost(models.ChannelFacebookPage)
	due.Item.BaseCaption = ""
	f.pi.due = []*models.DuePost{due}

	f.ap.RunOnce(context.Background())

	assert.Equal(t, 0, pub.calls)
	inst := f.pi.instances[1]
	assert.Equal(t, models.InstanceStatusFailed, inst.Status)
	assert.Contains(t, inst.LastError, "no caption")

	job := f.pj.only()
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "no caption")
}

func TestAutoposterAttemptNumbersAreMonotone(t *testing.T) {
	pub := &stubPublisher{connected: true, err: errors.New("transient")}
	f := newAutoposterFixture(pub)
	f.pi.due = []*models.DuePost{f.duePost(models.ChannelFacebookPage)}

	f.ap.RunOnce(context.Background())
	require.Equal(t, models.InstanceStatusFailed, f.pi.instances[1].Status)

	// A human retry puts the instance back in scheduled; the next sweep
	// appends a second attempt.
	f.pi.instances[1].Status = models.InstanceStatusScheduled
	f.pi.due[0].Instance.Status = models.InstanceStatusScheduled
	pub.err = nil
	pub.result = &publisher.Result{URL: "https://www.facebook.com/page/1", ID: "fb-2"}

	f.ap.RunOnce(context.Background())

	require.Len(t, f.pj.jobs, 2)
	attempts := make(map[int]string)
	for _, j := range f.pj.jobs {
		attempts[j.AttemptNo] = j.Status
	}
	assert.Equal(t, models.JobStatusFailed, attempts[1])
	assert.Equal(t, models.JobStatusCompleted, attempts[2])
	assert.Equal(t, models.InstanceStatusPosted, f.pi.instances[1].Status)
}

func TestAutoposterUnknownChannelRefuses(t *testing.T) {
	pub := &stubPublisher{connected: true}
	f := newAutoposterFixture(pub)
	due := f.duePost("tiktok")
	f.pi.due = []*models.DuePost{due}

	f.ap.RunOnce(context.Background())

	// Unknown channel key: no channel row, so the sweep leaves it alone.
	assert.Equal(t, 0, pub.calls)
	assert.Equal(t, models.InstanceStatusScheduled, f.pi.instances[1].Status)
}
