package repository

import (
	"context"
	"database/sql"

	"github.com/sendkite/broadcast-backend/internal/model"
)

// ChannelRepositoryInterface exposes the sending channels available to the
// editing session.
type ChannelRepositoryInterface interface {
	List(ctx context.Context) ([]model.Channel, error)
	GetByID(ctx context.Context, id string) (*model.Channel, error)
}

type ChannelRepository struct {
	DB *sql.DB
}

func (r *ChannelRepository) List(ctx context.Context) ([]model.Channel, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, label, type, score FROM channels ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []model.Channel{}
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(&ch.ID, &ch.Label, &ch.Type, &ch.Score); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*model.Channel, error) {
	var ch model.Channel
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, label, type, score FROM channels WHERE id=$1`, id,
	).Scan(&ch.ID, &ch.Label, &ch.Type, &ch.Score)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ch, nil
}

var _ ChannelRepositoryInterface = (*ChannelRepository)(nil)
