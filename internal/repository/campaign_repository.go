package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error
}

type CampaignRepository struct {
	DB *sql.DB
}

// Recipients, templates, attachments and settings are stored as jsonb; the
// marshal/unmarshal helpers below keep the row shape in one place.

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	recipients, templates, attachments, settings, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO campaigns
            (id, name, recipients, templates, message, attachments, settings,
             scheduled_at, channel_id, channel_label, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `
	_, err = r.DB.ExecContext(ctx, query,
		c.ID, c.Name, recipients, templates, c.Message, attachments, settings,
		c.ScheduledAt, c.ChannelID, c.ChannelLabel, c.Status, c.CreatedAt,
	)
	return err
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	recipients, templates, attachments, settings, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}
	query := `
        UPDATE campaigns
        SET name=$1, recipients=$2, templates=$3, message=$4, attachments=$5,
            settings=$6, scheduled_at=$7, channel_id=$8, channel_label=$9,
            status=$10, updated_at=NOW()
        WHERE id=$11
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.Name, recipients, templates, c.Message, attachments, settings,
		c.ScheduledAt, c.ChannelID, c.ChannelLabel, c.Status, c.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `
        SELECT id, name, recipients, templates, message, attachments, settings,
               scheduled_at, channel_id, channel_label, status, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var (
		c                                     model.Campaign
		recipients, templates, atts, settings []byte
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &recipients, &templates, &c.Message, &atts, &settings,
		&c.ScheduledAt, &c.ChannelID, &c.ChannelLabel, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := unmarshalCampaignJSON(&c, recipients, templates, atts, settings); err != nil {
		return nil, fmt.Errorf("decode campaign %s: %w", id, err)
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `
        SELECT id, name, recipients, templates, message, attachments, settings,
               scheduled_at, channel_id, channel_label, status, created_at, updated_at
        FROM campaigns WHERE 1=1
    `
	args := []interface{}{}
	argPos := 1
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		var recipients, templates, atts, settings []byte
		if err := rows.Scan(
			&c.ID, &c.Name, &recipients, &templates, &c.Message, &atts, &settings,
			&c.ScheduledAt, &c.ChannelID, &c.ChannelLabel, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if err := unmarshalCampaignJSON(c, recipients, templates, atts, settings); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

func marshalCampaignJSON(c *model.Campaign) (recipients, templates, attachments, settings []byte, err error) {
	if recipients, err = json.Marshal(c.Recipients); err != nil {
		return
	}
	if templates, err = json.Marshal(c.Templates); err != nil {
		return
	}
	if attachments, err = json.Marshal(c.Attachments); err != nil {
		return
	}
	settings, err = json.Marshal(c.Settings)
	return
}

// unmarshalCampaignJSON decodes the jsonb columns, defaulting any absent
// field so edit-mode hydration never sees nils.
func unmarshalCampaignJSON(c *model.Campaign, recipients, templates, attachments, settings []byte) error {
	c.Recipients = []string{}
	if len(recipients) > 0 {
		if err := json.Unmarshal(recipients, &c.Recipients); err != nil {
			return err
		}
	}
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	c.Templates = []model.TemplatePick{}
	if len(templates) > 0 {
		if err := json.Unmarshal(templates, &c.Templates); err != nil {
			return err
		}
	}
	if c.Templates == nil {
		c.Templates = []model.TemplatePick{}
	}
	c.Attachments = []model.Attachment{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &c.Attachments); err != nil {
			return err
		}
	}
	if c.Attachments == nil {
		c.Attachments = []model.Attachment{}
	}
	c.Settings = model.DefaultSettings()
	if len(settings) > 0 {
		var s model.BroadcastSettings
		if err := json.Unmarshal(settings, &s); err != nil {
			return err
		}
		if s.Speed != "" {
			c.Settings = s
		}
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
