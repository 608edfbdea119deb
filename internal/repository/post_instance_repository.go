package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/tradehq/backflow/internal/models"
)

// ErrStatusConflict is returned when a compare-and-set on status finds the
// row no longer in the expected state. Callers reload and re-decide.
var ErrStatusConflict = errors.New("post instance status changed concurrently")

type PostInstanceRepository interface {
	Create(ctx context.Context, inst *models.PostInstance) (int64, error)
	BulkCreatePlanned(ctx context.Context, tx *sql.Tx, instances []*models.PostInstance) (int, error)
	GetByID(ctx context.Context, tenantID string, id int64) (*models.PostInstance, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.PostInstance, error)
	ListScheduledBetween(ctx context.Context, tenantID string, accountID int64, from, to time.Time) ([]*models.PostInstance, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error)
	ListOverdue(ctx context.Context, tenantID string, before time.Time) ([]*models.PostInstance, error)
	UpdateEditable(ctx context.Context, inst *models.PostInstance) error
	Transition(ctx context.Context, tenantID string, id int64, from, to string, mutate func(*UpdateSet)) error
	DetachContent(ctx context.Context, tenantID string, contentItemID int64) (int64, error)
	Remove(ctx context.Context, tenantID string, id int64) error
}

// UpdateSet collects the column writes that accompany a status transition.
type UpdateSet struct {
	cols []string
	args []interface{}
}

func (u *UpdateSet) Set(col string, val interface{}) {
	u.cols = append(u.cols, col)
	u.args = append(u.args, val)
}

// Each visits the collected writes in insertion order.
func (u *UpdateSet) Each(fn func(col string, val interface{})) {
	for i, col := range u.cols {
		fn(col, u.args[i])
	}
}

type postInstanceRepository struct {
	db *sql.DB
}

func NewPostInstanceRepository(db *sql.DB) PostInstanceRepository {
	return &postInstanceRepository{db: db}
}

const instanceColumns = `id, tenant_id, channel_account_id, content_item_id, caption_override,
	scheduled_for, status, posted_at, post_url, posted_manually, screenshot_url,
	autopost_enabled, last_error, suggested_category, notes, publish_job_id,
	created_at, updated_at`

func scanInstance(row interface{ Scan(...interface{}) error }) (*models.PostInstance, error) {
	var p models.PostInstance
	err := row.Scan(&p.ID, &p.TenantID, &p.ChannelAccountID, &p.ContentItemID,
		&p.CaptionOverride, &p.ScheduledFor, &p.Status, &p.PostedAt, &p.PostURL,
		&p.PostedManually, &p.ScreenshotURL, &p.AutopostEnabled, &p.LastError,
		&p.SuggestedCategory, &p.Notes, &p.PublishJobID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postInstanceRepository) Create(ctx context.Context, inst *models.PostInstance) (int64, error) {
	query := `
		INSERT INTO post_instances (tenant_id, channel_account_id, content_item_id,
			caption_override, scheduled_for, status, autopost_enabled,
			suggested_category, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, inst.TenantID, inst.ChannelAccountID,
		inst.ContentItemID, inst.CaptionOverride, inst.ScheduledFor, inst.Status,
		inst.AutopostEnabled, inst.SuggestedCategory, inst.Notes).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// BulkCreatePlanned inserts synthesized planned slots. Slots whose
// (tenant_id, channel_account_id, scheduled_for) already exist are skipped
// by the store, so concurrent top-off runs race safely. Returns the number
// of rows actually inserted.
func (r *postInstanceRepository) BulkCreatePlanned(ctx context.Context, tx *sql.Tx, instances []*models.PostInstance) (int, error) {
	query := `
		INSERT INTO post_instances (tenant_id, channel_account_id, content_item_id,
			scheduled_for, status, autopost_enabled, suggested_category, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, channel_account_id, scheduled_for)
			WHERE scheduled_for IS NOT NULL
			DO NOTHING
	`

	inserted := 0
	for _, inst := range instances {
		var res sql.Result
		var err error
		if tx != nil {
			res, err = tx.ExecContext(ctx, query, inst.TenantID, inst.ChannelAccountID,
				inst.ContentItemID, inst.ScheduledFor, inst.Status, inst.AutopostEnabled,
				inst.SuggestedCategory, inst.Notes)
		} else {
			res, err = r.db.ExecContext(ctx, query, inst.TenantID, inst.ChannelAccountID,
				inst.ContentItemID, inst.ScheduledFor, inst.Status, inst.AutopostEnabled,
				inst.SuggestedCategory, inst.Notes)
		}
		if err != nil {
			slog.Info(err.Error())
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *postInstanceRepository) GetByID(ctx context.Context, tenantID string, id int64) (*models.PostInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM post_instances WHERE id = $1 AND tenant_id = $2`
	inst, err := scanInstance(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return inst, nil
}

func (r *postInstanceRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.PostInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM post_instances WHERE tenant_id = $1 ORDER BY scheduled_for NULLS LAST`
	return r.list(ctx, query, tenantID)
}

func (r *postInstanceRepository) ListScheduledBetween(ctx context.Context, tenantID string, accountID int64, from, to time.Time) ([]*models.PostInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM post_instances
		WHERE tenant_id = $1 AND channel_account_id = $2
			AND scheduled_for >= $3 AND scheduled_for < $4
		ORDER BY scheduled_for`
	return r.list(ctx, query, tenantID, accountID, from, to)
}

func (r *postInstanceRepository) ListOverdue(ctx context.Context, tenantID string, before time.Time) ([]*models.PostInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM post_instances
		WHERE tenant_id = $1
			AND (status = 'failed'
				OR (status = 'scheduled' AND autopost_enabled = false AND scheduled_for < $2))
		ORDER BY scheduled_for`
	return r.list(ctx, query, tenantID, before)
}

func (r *postInstanceRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.PostInstance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var instances []*models.PostInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// ListDue returns scheduled instances whose time has come, with the bound
// content item, its media URLs, and the owning account eagerly loaded.
func (r *postInstanceRepository) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	query := `
		SELECT ` + prefixed("pi", instanceColumns) + `,
			ci.id, ci.tenant_id, ci.title, ci.base_caption, ci.cta_type, ci.cta_url,
			ci.tags, ci.target_city, ci.content_category, ci.status, ci.notes,
			ci.owner_id, ci.reviewer_id, ci.source_type, ci.source_ref,
			ci.created_at, ci.updated_at,
			` + prefixed("ca", accountColumns) + `
		FROM post_instances pi
		JOIN content_items ci ON ci.id = pi.content_item_id
		JOIN channel_accounts ca ON ca.id = pi.channel_account_id
		WHERE pi.status = 'scheduled'
			AND pi.scheduled_for <= $1
			AND pi.autopost_enabled = true
			AND pi.content_item_id IS NOT NULL
		ORDER BY pi.scheduled_for
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var due []*models.DuePost
	for rows.Next() {
		var d models.DuePost
		p := &d.Instance
		ci := &d.Item
		ca := &d.Account
		err := rows.Scan(
			&p.ID, &p.TenantID, &p.ChannelAccountID, &p.ContentItemID,
			&p.CaptionOverride, &p.ScheduledFor, &p.Status, &p.PostedAt, &p.PostURL,
			&p.PostedManually, &p.ScreenshotURL, &p.AutopostEnabled, &p.LastError,
			&p.SuggestedCategory, &p.Notes, &p.PublishJobID, &p.CreatedAt, &p.UpdatedAt,
			&ci.ID, &ci.TenantID, &ci.Title, &ci.BaseCaption, &ci.CTAType, &ci.CTAURL,
			&ci.Tags, &ci.TargetCity, &ci.ContentCategory, &ci.Status, &ci.Notes,
			&ci.OwnerID, &ci.ReviewerID, &ci.SourceType, &ci.SourceRef,
			&ci.CreatedAt, &ci.UpdatedAt,
			&ca.ID, &ca.TenantID, &ca.ChannelKey, &ca.Name, &ca.ExternalID,
			&ca.Status, &ca.Connected, &ca.OAuthProvider, &ca.OAuthTokenRef,
			&ca.TokenExpiresAt, &ca.PostsPerWeek, &ca.ScheduleTimezone,
			&ca.ScheduleTimes, &ca.BrandDiet, &ca.MixTargets, &ca.CreatedAt, &ca.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		due = append(due, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range due {
		urls, err := r.mediaURLs(ctx, d.Item.ID)
		if err != nil {
			return nil, err
		}
		d.MediaURLs = urls
	}
	return due, nil
}

func (r *postInstanceRepository) mediaURLs(ctx context.Context, contentItemID int64) ([]string, error) {
	query := `
		SELECT ma.file_url
		FROM content_item_media cim
		JOIN media_assets ma ON ma.id = cim.asset_id
		WHERE cim.content_item_id = $1
		ORDER BY cim.display_order
	`
	rows, err := r.db.QueryContext(ctx, query, contentItemID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// UpdateEditable writes the fields a user may edit without a status change.
// Posted instances accept only cosmetic edits; the service layer enforces
// that before calling here.
func (r *postInstanceRepository) UpdateEditable(ctx context.Context, inst *models.PostInstance) error {
	query := `
		UPDATE post_instances
		SET caption_override = $1, scheduled_for = $2, autopost_enabled = $3,
			post_url = $4, screenshot_url = $5, notes = $6, updated_at = $7
		WHERE id = $8 AND tenant_id = $9
	`
	_, err := r.db.ExecContext(ctx, query, inst.CaptionOverride, inst.ScheduledFor,
		inst.AutopostEnabled, inst.PostURL, inst.ScreenshotURL, inst.Notes,
		time.Now(), inst.ID, inst.TenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Transition moves an instance from one status to another with a
// compare-and-set on the current status. mutate may add column writes that
// ride along with the transition (posted_at, post_url, last_error...).
// Returns ErrStatusConflict when the row was not in the expected status.
func (r *postInstanceRepository) Transition(ctx context.Context, tenantID string, id int64, from, to string, mutate func(*UpdateSet)) error {
	set := &UpdateSet{}
	set.Set("status", to)
	set.Set("updated_at", time.Now())
	if mutate != nil {
		mutate(set)
	}

	query := `UPDATE post_instances SET `
	args := make([]interface{}, 0, len(set.args)+3)
	set.Each(func(col string, val interface{}) {
		if len(args) > 0 {
			query += ", "
		}
		query += col + ` = $` + itoa(len(args)+1)
		args = append(args, val)
	})
	n := len(args)
	query += ` WHERE id = $` + itoa(n+1) + ` AND tenant_id = $` + itoa(n+2) + ` AND status = $` + itoa(n+3)
	args = append(args, id, tenantID, from)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// DetachContent nulls the reference on instances bound to a deleted content
// item and demotes non-terminal instances back to planned. Posted instances
// keep their history through post_url. Returns the number of rows touched.
func (r *postInstanceRepository) DetachContent(ctx context.Context, tenantID string, contentItemID int64) (int64, error) {
	query := `
		UPDATE post_instances
		SET content_item_id = NULL,
			status = CASE WHEN status IN ('draft', 'needs_approval', 'approved', 'scheduled')
				THEN 'planned' ELSE status END,
			updated_at = $1
		WHERE tenant_id = $2 AND content_item_id = $3
	`
	res, err := r.db.ExecContext(ctx, query, time.Now(), tenantID, contentItemID)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postInstanceRepository) Remove(ctx context.Context, tenantID string, id int64) error {
	query := `DELETE FROM post_instances WHERE id = $1 AND tenant_id = $2 AND status != 'posted'`
	res, err := r.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}
