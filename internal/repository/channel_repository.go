package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/tradehq/backflow/internal/models"
)

type ChannelRepository interface {
	List(ctx context.Context) ([]*models.MarketingChannel, error)
	GetByKey(ctx context.Context, key string) (*models.MarketingChannel, error)
	Seed(ctx context.Context, channels []*models.MarketingChannel) (int, error)
}

type channelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) List(ctx context.Context) ([]*models.MarketingChannel, error) {
	query := `SELECT id, channel_key, display_name, supports_autopost, created_at FROM marketing_channels ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var channels []*models.MarketingChannel
	for rows.Next() {
		var ch models.MarketingChannel
		if err := rows.Scan(&ch.ID, &ch.ChannelKey, &ch.DisplayName, &ch.SupportsAutopost, &ch.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

func (r *channelRepository) GetByKey(ctx context.Context, key string) (*models.MarketingChannel, error) {
	query := `SELECT id, channel_key, display_name, supports_autopost, created_at FROM marketing_channels WHERE channel_key = $1`
	row := r.db.QueryRowContext(ctx, query, key)

	var ch models.MarketingChannel
	err := row.Scan(&ch.ID, &ch.ChannelKey, &ch.DisplayName, &ch.SupportsAutopost, &ch.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &ch, nil
}

// Seed inserts the given channels, skipping keys that already exist.
// Returns the number of rows actually inserted.
func (r *channelRepository) Seed(ctx context.Context, channels []*models.MarketingChannel) (int, error) {
	query := `
		INSERT INTO marketing_channels (channel_key, display_name, supports_autopost)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel_key) DO NOTHING
	`

	inserted := 0
	for _, ch := range channels {
		res, err := r.db.ExecContext(ctx, query, ch.ChannelKey, ch.DisplayName, ch.SupportsAutopost)
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
