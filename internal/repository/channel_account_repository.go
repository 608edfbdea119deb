package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/tradehq/backflow/internal/models"
)

type ChannelAccountRepository interface {
	Create(ctx context.Context, acc *models.ChannelAccount) (int64, error)
	GetByID(ctx context.Context, tenantID string, id int64) (*models.ChannelAccount, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error)
	ListActive(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error)
	ListTenants(ctx context.Context) ([]string, error)
	Update(ctx context.Context, acc *models.ChannelAccount) error
	UpdateConnection(ctx context.Context, tenantID string, id int64, provider, tokenRef string, expiresAt time.Time) error
	SwapTokenRef(ctx context.Context, id int64, expectedRef, newRef string, expiresAt time.Time) (bool, error)
	ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.ChannelAccount, error)
	Remove(ctx context.Context, tenantID string, id int64) error
}

type channelAccountRepository struct {
	db *sql.DB
}

func NewChannelAccountRepository(db *sql.DB) ChannelAccountRepository {
	return &channelAccountRepository{db: db}
}

const accountColumns = `id, tenant_id, channel_key, name, external_id, status, connected,
	oauth_provider, oauth_token_ref, token_expires_at, posts_per_week,
	schedule_timezone, schedule_times, brand_diet, mix_targets, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.ChannelAccount, error) {
	var acc models.ChannelAccount
	err := row.Scan(&acc.ID, &acc.TenantID, &acc.ChannelKey, &acc.Name, &acc.ExternalID,
		&acc.Status, &acc.Connected, &acc.OAuthProvider, &acc.OAuthTokenRef,
		&acc.TokenExpiresAt, &acc.PostsPerWeek, &acc.ScheduleTimezone,
		&acc.ScheduleTimes, &acc.BrandDiet, &acc.MixTargets, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *channelAccountRepository) Create(ctx context.Context, acc *models.ChannelAccount) (int64, error) {
	query := `
		INSERT INTO channel_accounts (tenant_id, channel_key, name, external_id, status,
			posts_per_week, schedule_timezone, schedule_times, brand_diet, mix_targets)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	diet, err := acc.BrandDiet.Value()
	if err != nil {
		return 0, err
	}
	targets, err := acc.MixTargets.Value()
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, acc.TenantID, acc.ChannelKey, acc.Name,
		acc.ExternalID, acc.Status, acc.PostsPerWeek, acc.ScheduleTimezone,
		pq.Array(acc.ScheduleTimes), diet, targets).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *channelAccountRepository) GetByID(ctx context.Context, tenantID string, id int64) (*models.ChannelAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM channel_accounts WHERE id = $1 AND tenant_id = $2`
	acc, err := scanAccount(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return acc, nil
}

func (r *channelAccountRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM channel_accounts WHERE tenant_id = $1 ORDER BY id`
	return r.list(ctx, query, tenantID)
}

// ListActive returns accounts with status 'active' or null; null is treated
// as active for rows created before the status column existed.
func (r *channelAccountRepository) ListActive(ctx context.Context, tenantID string) ([]*models.ChannelAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM channel_accounts
		WHERE tenant_id = $1 AND (status IS NULL OR status = 'active') ORDER BY id`
	return r.list(ctx, query, tenantID)
}

func (r *channelAccountRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.ChannelAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ChannelAccount
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *channelAccountRepository) ListTenants(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT tenant_id FROM channel_accounts ORDER BY tenant_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *channelAccountRepository) Update(ctx context.Context, acc *models.ChannelAccount) error {
	query := `
		UPDATE channel_accounts
		SET name = $1, external_id = $2, status = $3, posts_per_week = $4,
			schedule_timezone = $5, schedule_times = $6, brand_diet = $7,
			mix_targets = $8, updated_at = $9
		WHERE id = $10 AND tenant_id = $11
	`

	diet, err := acc.BrandDiet.Value()
	if err != nil {
		return err
	}
	targets, err := acc.MixTargets.Value()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, acc.Name, acc.ExternalID, acc.Status,
		acc.PostsPerWeek, acc.ScheduleTimezone, pq.Array(acc.ScheduleTimes),
		diet, targets, time.Now(), acc.ID, acc.TenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *channelAccountRepository) UpdateConnection(ctx context.Context, tenantID string, id int64, provider, tokenRef string, expiresAt time.Time) error {
	query := `
		UPDATE channel_accounts
		SET connected = true, oauth_provider = $1, oauth_token_ref = $2,
			token_expires_at = $3, updated_at = $4
		WHERE id = $5 AND tenant_id = $6
	`
	_, err := r.db.ExecContext(ctx, query, provider, tokenRef, expiresAt, time.Now(), id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SwapTokenRef replaces the token bundle only if the stored ref still matches
// expectedRef. Returns false when a concurrent refresh already rotated it.
func (r *channelAccountRepository) SwapTokenRef(ctx context.Context, id int64, expectedRef, newRef string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE channel_accounts
		SET oauth_token_ref = $1, token_expires_at = $2, updated_at = $3
		WHERE id = $4 AND oauth_token_ref = $5
	`
	res, err := r.db.ExecContext(ctx, query, newRef, expiresAt, time.Now(), id, expectedRef)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *channelAccountRepository) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.ChannelAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM channel_accounts
		WHERE connected = true AND token_expires_at BETWEEN $1 AND $2`
	return r.list(ctx, query, from, to)
}

func (r *channelAccountRepository) Remove(ctx context.Context, tenantID string, id int64) error {
	query := `DELETE FROM channel_accounts WHERE id = $1 AND tenant_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
