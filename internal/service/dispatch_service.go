package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/repository"
)

// Sender delivers one rendered message to a canonical phone number. The
// production build plugs a gateway client in here; the default is a mock.
type Sender interface {
	Send(phone, content string) error
}

// MockSender succeeds ~90% of the time, enough to exercise the failed path.
type MockSender struct{}

func (MockSender) Send(phone, content string) error {
	if rand.Intn(100) < 90 {
		return nil
	}
	return fmt.Errorf("mock send to %s failed", phone)
}

// DispatchService turns a submitted campaign into per-recipient outbound
// messages and pushes them through the sender.
type DispatchService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	OutboundRepo repository.OutboundMessageRepositoryInterface
	Sender       Sender

	// Rand drives spintax resolution and template rotation. Tests swap in a
	// seeded source.
	Rand *rand.Rand
}

func NewDispatchService(
	campaigns repository.CampaignRepositoryInterface,
	outbound repository.OutboundMessageRepositoryInterface,
	sender Sender,
) *DispatchService {
	return &DispatchService{
		CampaignRepo: campaigns,
		OutboundRepo: outbound,
		Sender:       sender,
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ProcessSubmission fans a campaign out to its recipients. Message rows are
// created idempotently per (campaign, phone), so redelivered jobs do not
// double-send: a row that already left the pending state is skipped. The
// daily limit is an advisory batch cap: once this run has attempted that
// many sends the campaign stays in sending until the next delivery of the
// job picks up the remainder.
func (s *DispatchService) ProcessSubmission(ctx context.Context, campaignID string) error {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}

	if err := s.CampaignRepo.UpdateStatus(ctx, campaign.ID, model.CampaignStatusSending); err != nil {
		return err
	}

	limit := campaign.Settings.DailyLimit
	attempted, failed := 0, 0
	capped := false
	for _, phone := range campaign.Recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && attempted >= limit {
			capped = true
			break
		}

		msg, err := s.OutboundRepo.CreateIfAbsent(ctx, campaign.ID, phone)
		if err != nil {
			return err
		}
		if msg.Status != "pending" {
			continue
		}
		attempted++

		content := s.Render(campaign)
		if err := s.Sender.Send(phone, content); err != nil {
			failed++
			log.Printf("dispatch: send to %s failed: %v", phone, err)
			if err := s.OutboundRepo.UpdateStatus(ctx, msg.ID, "failed", err.Error()); err != nil {
				return err
			}
			continue
		}
		if err := s.OutboundRepo.UpdateStatus(ctx, msg.ID, "sent", ""); err != nil {
			return err
		}
	}

	status := model.CampaignStatusSent
	if capped {
		status = model.CampaignStatusSending
	} else if failed > 0 && failed == attempted {
		status = model.CampaignStatusFailed
	}
	return s.CampaignRepo.UpdateStatus(ctx, campaign.ID, status)
}

// Render produces the outgoing text for one recipient: the campaign message
// with spintax groups resolved, falling back to a rotation pick when the
// campaign carries templates instead of an inline message.
func (s *DispatchService) Render(campaign *model.Campaign) string {
	if campaign.Message != "" {
		return s.resolveSpintax(campaign.Message)
	}
	if pick := s.rotate(campaign.Templates); pick != nil {
		return s.resolveSpintax(pick.Name)
	}
	return ""
}

// rotate picks one template proportionally to its weight.
func (s *DispatchService) rotate(picks []model.TemplatePick) *model.TemplatePick {
	total := 0
	for _, p := range picks {
		total += p.Weight
	}
	if total <= 0 {
		return nil
	}
	n := s.Rand.Intn(total)
	for i := range picks {
		n -= picks[i].Weight
		if n < 0 {
			return &picks[i]
		}
	}
	return &picks[len(picks)-1]
}

// resolveSpintax replaces every {a|b|c} group with one random alternative.
// Braced fragments without a pipe are left alone.
func (s *DispatchService) resolveSpintax(text string) string {
	var out strings.Builder
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			out.WriteString(text)
			break
		}
		end := strings.IndexByte(text[open:], '}')
		if end < 0 {
			out.WriteString(text)
			break
		}
		end += open

		group := text[open+1 : end]
		out.WriteString(text[:open])
		if strings.Contains(group, "|") {
			options := strings.Split(group, "|")
			out.WriteString(options[s.Rand.Intn(len(options))])
		} else {
			out.WriteString(text[open : end+1])
		}
		text = text[end+1:]
	}
	return out.String()
}
