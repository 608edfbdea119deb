package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
)

// In-memory repository implementations used across the service tests.

type memAccountRepo struct {
	accounts []*models.ChannelAccount
}

func (m *memAccountRepo) Create(ctx context.Context, acc *models.ChannelAccount) (int64, error) {
	acc.ID = int64(len(m.accounts) + 1)
	m.accounts = append(m.accounts, acc)
	return acc.ID, nil
}

func (m *memAccountRepo) GetByID(ctx context.Context, tenantID string, id int64) (*models.ChannelAccount, error) {
	for _, a := range m.accounts {
		if a.ID == id && a.TenantID == tenantID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccountRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error) {
	var out []*models.ChannelAccount
	for _, a := range m.accounts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccountRepo) ListActive(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error) {
	var out []*models.ChannelAccount
	for _, a := range m.accounts {
		if a.TenantID == tenantID && a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccountRepo) ListTenants(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, a := range m.accounts {
		if !seen[a.TenantID] {
			seen[a.TenantID] = true
			out = append(out, a.TenantID)
		}
	}
	return out, nil
}

func (m *memAccountRepo) Update(ctx context.Context, acc *models.ChannelAccount) error { return nil }

func (m *memAccountRepo) UpdateConnection(ctx context.Context, tenantID string, id int64, provider, tokenRef string, expiresAt time.Time) error {
	return nil
}

func (m *memAccountRepo) SwapTokenRef(ctx context.Context, id int64, expectedRef, newRef string, expiresAt time.Time) (bool, error) {
	for _, a := range m.accounts {
		if a.ID == id && a.OAuthTokenRef == expectedRef {
			a.OAuthTokenRef = newRef
			a.TokenExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
			return true, nil
		}
	}
	return false, nil
}

func (m *memAccountRepo) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.ChannelAccount, error) {
	return nil, nil
}

func (m *memAccountRepo) Remove(ctx context.Context, tenantID string, id int64) error { return nil }

type memInstanceRepo struct {
	instances map[int64]*models.PostInstance
	nextID    int64
}

func newMemInstanceRepo() *memInstanceRepo {
	return &memInstanceRepo{instances: make(map[int64]*models.PostInstance)}
}

func (m *memInstanceRepo) add(inst *models.PostInstance) *models.PostInstance {
	m.nextID++
	inst.ID = m.nextID
	m.instances[inst.ID] = inst
	return inst
}

func (m *memInstanceRepo) Create(ctx context.Context, inst *models.PostInstance) (int64, error) {
	return m.add(inst).ID, nil
}

func (m *memInstanceRepo) BulkCreatePlanned(ctx context.Context, tx *sql.Tx, instances []*models.PostInstance) (int, error) {
	created := 0
	for _, inst := range instances {
		if m.slotTaken(inst.ChannelAccountID, inst.ScheduledFor.Time) {
			continue
		}
		m.add(inst)
		created++
	}
	return created, nil
}

func (m *memInstanceRepo) slotTaken(accountID int64, at time.Time) bool {
	for _, inst := range m.instances {
		if inst.ChannelAccountID == accountID && inst.ScheduledFor.Valid &&
			inst.ScheduledFor.Time.Equal(at) {
			return true
		}
	}
	return false
}

func (m *memInstanceRepo) GetByID(ctx context.Context, tenantID string, id int64) (*models.PostInstance, error) {
	inst, ok := m.instances[id]
	if !ok || inst.TenantID != tenantID {
		return nil, nil
	}
	return inst, nil
}

func (m *memInstanceRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.PostInstance, error) {
	var out []*models.PostInstance
	for _, inst := range m.instances {
		if inst.TenantID == tenantID {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *memInstanceRepo) ListScheduledBetween(ctx context.Context, tenantID string, accountID int64, from, to time.Time) ([]*models.PostInstance, error) {
	var out []*models.PostInstance
	for _, inst := range m.instances {
		if inst.TenantID != tenantID || inst.ChannelAccountID != accountID || !inst.ScheduledFor.Valid {
			continue
		}
		at := inst.ScheduledFor.Time
		if !at.Before(from) && at.Before(to) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *memInstanceRepo) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	return nil, nil
}

func (m *memInstanceRepo) ListOverdue(ctx context.Context, tenantID string, before time.Time) ([]*models.PostInstance, error) {
	return nil, nil
}

func (m *memInstanceRepo) UpdateEditable(ctx context.Context, inst *models.PostInstance) error {
	m.instances[inst.ID] = inst
	return nil
}

func (m *memInstanceRepo) Transition(ctx context.Context, tenantID string, id int64, from, to string, mutate func(*repository.UpdateSet)) error {
	inst, ok := m.instances[id]
	if !ok || inst.TenantID != tenantID || inst.Status != from {
		return repository.ErrStatusConflict
	}
	inst.Status = to
	if mutate != nil {
		set := &repository.UpdateSet{}
		mutate(set)
		set.Each(func(col string, val interface{}) {
			applyInstanceWrite(inst, col, val)
		})
	}
	return nil
}

func applyInstanceWrite(inst *models.PostInstance, col string, val interface{}) {
	switch col {
	case "content_item_id":
		inst.ContentItemID = sql.NullInt64{Int64: val.(int64), Valid: true}
	case "scheduled_for":
		inst.ScheduledFor = sql.NullTime{Time: val.(time.Time), Valid: true}
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
}

func (m *memInstanceRepo) DetachContent(ctx context.Context, tenantID string, contentItemID int64) (int64, error) {
	var n int64
	for _, inst := range m.instances {
		if inst.TenantID != tenantID || !inst.ContentItemID.Valid || inst.ContentItemID.Int64 != contentItemID {
			continue
		}
		inst.ContentItemID = sql.NullInt64{}
		switch inst.Status {
		case models.InstanceStatusDraft, models.InstanceStatusNeedsApproval,
			models.InstanceStatusApproved, models.InstanceStatusScheduled:
			inst.Status = models.InstanceStatusPlanned
		}
		n++
	}
	return n, nil
}

func (m *memInstanceRepo) Remove(ctx context.Context, tenantID string, id int64) error {
	inst, ok := m.instances[id]
	if !ok || inst.TenantID != tenantID || inst.Status == models.InstanceStatusPosted {
		return repository.ErrStatusConflict
	}
	delete(m.instances, id)
	return nil
}

type memItemRepo struct {
	items map[int64]*models.ContentItem
	next  int64
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[int64]*models.ContentItem)}
}

func (m *memItemRepo) Create(ctx context.Context, item *models.ContentItem) (int64, error) {
	m.next++
	item.ID = m.next
	m.items[item.ID] = item
	return item.ID, nil
}

func (m *memItemRepo) GetByID(ctx context.Context, tenantID string, id int64) (*models.ContentItem, error) {
	item, ok := m.items[id]
	if !ok || item.TenantID != tenantID {
		return nil, nil
	}
	return item, nil
}

func (m *memItemRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.ContentItem, error) {
	var out []*models.ContentItem
	for _, item := range m.items {
		if item.TenantID == tenantID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memItemRepo) Update(ctx context.Context, item *models.ContentItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *memItemRepo) UpdateStatus(ctx context.Context, tenantID string, id int64, from, to string) (bool, error) {
	item, ok := m.items[id]
	if !ok || item.TenantID != tenantID || item.Status != from {
		return false, nil
	}
	item.Status = to
	return true, nil
}

func (m *memItemRepo) AddMedia(ctx context.Context, contentItemID, assetID int64, displayOrder int) error {
	return nil
}

func (m *memItemRepo) ListMediaURLs(ctx context.Context, contentItemID int64) ([]string, error) {
	return nil, nil
}

func (m *memItemRepo) Remove(ctx context.Context, tenantID string, id int64) error {
	delete(m.items, id)
	return nil
}

type memJobRepo struct {
	jobs map[int64]*models.PublishJob
	next int64
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[int64]*models.PublishJob)}
}

func (m *memJobRepo) Create(ctx context.Context, job *models.PublishJob) (int64, error) {
	attempt := 0
	for _, j := range m.jobs {
		if j.PostInstanceID == job.PostInstanceID && j.AttemptNo > attempt {
			attempt = j.AttemptNo
		}
	}
	m.next++
	job.ID = m.next
	job.AttemptNo = attempt + 1
	m.jobs[job.ID] = job
	return job.ID, nil
}

func (m *memJobRepo) GetByID(ctx context.Context, id int64) (*models.PublishJob, error) {
	return m.jobs[id], nil
}

func (m *memJobRepo) ListByInstance(ctx context.Context, tenantID string, instanceID int64) ([]*models.PublishJob, error) {
	var out []*models.PublishJob
	for _, j := range m.jobs {
		if j.TenantID == tenantID && j.PostInstanceID == instanceID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memJobRepo) MarkCompleted(ctx context.Context, id int64, responseRef string) error {
	if j, ok := m.jobs[id]; ok {
		j.Status = models.JobStatusCompleted
		j.ResponseRef = responseRef
	}
	return nil
}

func (m *memJobRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	if j, ok := m.jobs[id]; ok {
		j.Status = models.JobStatusFailed
		j.ErrorMessage = errorMessage
	}
	return nil
}

type memReviewRepo struct {
	requests map[int64]*models.ReviewRequest
	next     int64
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{requests: make(map[int64]*models.ReviewRequest)}
}

func (m *memReviewRepo) Create(ctx context.Context, req *models.ReviewRequest) (int64, error) {
	m.next++
	req.ID = m.next
	m.requests[req.ID] = req
	return req.ID, nil
}

func (m *memReviewRepo) GetByID(ctx context.Context, tenantID string, id int64) (*models.ReviewRequest, error) {
	req, ok := m.requests[id]
	if !ok || req.TenantID != tenantID {
		return nil, nil
	}
	return req, nil
}

func (m *memReviewRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.ReviewRequest, error) {
	var out []*models.ReviewRequest
	for _, req := range m.requests {
		if req.TenantID == tenantID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (m *memReviewRepo) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	if req, ok := m.requests[id]; ok {
		req.Status = models.ReviewRequestSent
		req.SentAt = sql.NullTime{Time: sentAt, Valid: true}
	}
	return nil
}

func (m *memReviewRepo) MarkCompleted(ctx context.Context, tenantID string, id int64) (bool, error) {
	req, ok := m.requests[id]
	if !ok || req.TenantID != tenantID || req.Status != models.ReviewRequestSent {
		return false, nil
	}
	req.Status = models.ReviewRequestCompleted
	return true, nil
}

func (m *memReviewRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, req := range m.requests {
		if req.Status == models.ReviewRequestPending && req.ExpiresAt.Before(now) {
			req.Status = models.ReviewRequestExpired
			n++
		}
	}
	return n, nil
}

type memMediaRepo struct {
	assets map[int64]*models.MediaAsset
	next   int64
}

func newMemMediaRepo() *memMediaRepo {
	return &memMediaRepo{assets: make(map[int64]*models.MediaAsset)}
}

func (m *memMediaRepo) Create(ctx context.Context, asset *models.MediaAsset) (int64, error) {
	m.next++
	asset.ID = m.next
	m.assets[asset.ID] = asset
	return asset.ID, nil
}

func (m *memMediaRepo) GetByID(ctx context.Context, tenantID string, id int64) (*models.MediaAsset, error) {
	asset, ok := m.assets[id]
	if !ok || asset.TenantID != tenantID {
		return nil, nil
	}
	return asset, nil
}

func (m *memMediaRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.MediaAsset, error) {
	var out []*models.MediaAsset
	for _, asset := range m.assets {
		if asset.TenantID == tenantID {
			out = append(out, asset)
		}
	}
	return out, nil
}

func (m *memMediaRepo) Remove(ctx context.Context, tenantID string, id int64) error {
	delete(m.assets, id)
	return nil
}

type memTransitionRepo struct {
	records []*models.InstanceTransition
}

func (m *memTransitionRepo) Record(ctx context.Context, t *models.InstanceTransition) error {
	m.records = append(m.records, t)
	return nil
}

func (m *memTransitionRepo) ListByInstance(ctx context.Context, tenantID string, instanceID int64) ([]*models.InstanceTransition, error) {
	var out []*models.InstanceTransition
	for _, t := range m.records {
		if t.TenantID == tenantID && t.PostInstanceID == instanceID {
			out = append(out, t)
		}
	}
	return out, nil
}
