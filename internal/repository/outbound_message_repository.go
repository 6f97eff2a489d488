package repository

import (
	"context"
	"database/sql"

	"github.com/sendkite/broadcast-backend/internal/model"
)

// OutboundMessageRepositoryInterface is what the dispatch worker needs.
type OutboundMessageRepositoryInterface interface {
	CreateIfAbsent(ctx context.Context, campaignID, phone string) (*model.OutboundMessage, error)
	GetByID(ctx context.Context, id int) (*model.OutboundMessage, error)
	UpdateStatus(ctx context.Context, id int, status, lastError string) error
	Stats(ctx context.Context, campaignID string) (map[string]int, error)
}

type OutboundMessageRepository struct {
	DB *sql.DB
}

// CreateIfAbsent inserts a pending message for (campaign, phone) or returns
// the existing one, so campaign fan-out stays idempotent across retries.
func (r *OutboundMessageRepository) CreateIfAbsent(ctx context.Context, campaignID, phone string) (*model.OutboundMessage, error) {
	existing, err := r.get(ctx, campaignID, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	query := `
        INSERT INTO outbound_messages (campaign_id, phone, status, retry_count, created_at, updated_at)
        VALUES ($1, $2, 'pending', 0, NOW(), NOW())
        RETURNING id, status, retry_count, created_at, updated_at
    `
	var msg model.OutboundMessage
	err = r.DB.QueryRowContext(ctx, query, campaignID, phone).Scan(
		&msg.ID, &msg.Status, &msg.RetryCount, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.CampaignID = campaignID
	msg.Phone = phone
	return &msg, nil
}

func (r *OutboundMessageRepository) get(ctx context.Context, campaignID, phone string) (*model.OutboundMessage, error) {
	query := `
        SELECT id, campaign_id, phone, status, rendered_content, last_error, retry_count, created_at, updated_at
        FROM outbound_messages
        WHERE campaign_id=$1 AND phone=$2
    `
	var msg model.OutboundMessage
	err := r.DB.QueryRowContext(ctx, query, campaignID, phone).Scan(
		&msg.ID, &msg.CampaignID, &msg.Phone, &msg.Status,
		&msg.RenderedContent, &msg.LastError, &msg.RetryCount,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *OutboundMessageRepository) GetByID(ctx context.Context, id int) (*model.OutboundMessage, error) {
	query := `
        SELECT id, campaign_id, phone, status, rendered_content, last_error, retry_count, created_at, updated_at
        FROM outbound_messages
        WHERE id=$1
    `
	var msg model.OutboundMessage
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.CampaignID, &msg.Phone, &msg.Status,
		&msg.RenderedContent, &msg.LastError, &msg.RetryCount,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *OutboundMessageRepository) UpdateStatus(ctx context.Context, id int, status, lastError string) error {
	query := `UPDATE outbound_messages SET status=$1, last_error=$2, retry_count=retry_count+1, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, status, lastError, id)
	return err
}

// Stats returns per-status message counts for a campaign.
func (r *OutboundMessageRepository) Stats(ctx context.Context, campaignID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM outbound_messages WHERE campaign_id=$1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0}
	total := 0
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		total += count
	}
	stats["total"] = total
	return stats, rows.Err()
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
