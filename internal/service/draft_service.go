package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/sendkite/broadcast-backend/internal/draft"
	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/queue"
	"github.com/sendkite/broadcast-backend/internal/repository"
)

// ErrSessionNotFound is returned for unknown or already-submitted sessions.
var ErrSessionNotFound = errors.New("draft session not found")

// DraftService owns the live editing sessions. Each session has a single
// logical writer; the service mutex serializes access because HTTP handlers
// share the session store.
type DraftService struct {
	mu       sync.Mutex
	sessions map[string]*draft.Session

	ContactRepo  repository.ContactRepositoryInterface
	ChannelRepo  repository.ChannelRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	Publisher    queue.Publisher
}

func NewDraftService(
	contacts repository.ContactRepositoryInterface,
	channels repository.ChannelRepositoryInterface,
	campaigns repository.CampaignRepositoryInterface,
	publisher queue.Publisher,
) *DraftService {
	return &DraftService{
		sessions:     make(map[string]*draft.Session),
		ContactRepo:  contacts,
		ChannelRepo:  channels,
		CampaignRepo: campaigns,
		Publisher:    publisher,
	}
}

// StartSession opens a new editing session on an empty draft.
func (s *DraftService) StartSession() *draft.Session {
	sess := draft.NewSession(uuid.New().String())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// StartEditSession opens a session hydrated from a persisted campaign.
func (s *DraftService) StartEditSession(ctx context.Context, campaignID string) (*draft.Session, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	sess := draft.NewSession(uuid.New().String())
	sess.CampaignID = c.ID
	sess.Draft = draft.FromCampaign(c)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

// Session returns the session by id.
func (s *DraftService) Session(id string) (*draft.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Mutate applies fn to the session under the store lock. The session is
// returned so handlers can echo the updated draft.
func (s *DraftService) Mutate(id string, fn func(*draft.Session) error) (*draft.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetChannel looks the channel up and attaches it to the draft, deriving the
// daily limit from its trust score.
func (s *DraftService) SetChannel(ctx context.Context, sessionID, channelID string) (*draft.Session, error) {
	ch, err := s.ChannelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, errors.New("channel not found")
	}
	return s.Mutate(sessionID, func(sess *draft.Session) error {
		sess.Draft.SetChannel(ch)
		return nil
	})
}

// SelectVisible unions the draft audience with the contacts matching the
// given live filter, without dropping selections outside the filter.
func (s *DraftService) SelectVisible(ctx context.Context, sessionID, search, tag string) (*draft.Session, error) {
	visible, err := s.ContactRepo.List(ctx, search, tag)
	if err != nil {
		return nil, err
	}
	return s.Mutate(sessionID, func(sess *draft.Session) error {
		sess.Draft.SelectVisible(visible)
		return nil
	})
}

// Submit runs the final validation, persists the campaign and hands it to
// the dispatch queue. On any error the session is preserved unmutated so the
// user can retry; on success it is destroyed.
func (s *DraftService) Submit(ctx context.Context, sessionID string) (*model.Campaign, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	recipients, err := s.resolveRecipients(ctx, sess.Draft)
	if err != nil {
		return nil, err
	}
	if err := draft.ValidateSubmit(sess.Draft, recipients); err != nil {
		return nil, err
	}

	c := sess.Draft.Campaign(recipients)
	if sess.CampaignID != "" {
		c.ID = sess.CampaignID
		err = s.CampaignRepo.Update(ctx, c)
	} else {
		c.ID = uuid.New().String()
		err = s.CampaignRepo.Create(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	if s.Publisher != nil {
		if err := s.Publisher.Publish(queue.TopicCampaignSubmissions, queue.SubmissionJob{CampaignID: c.ID}); err != nil {
			log.Println("failed to enqueue campaign submission:", err)
		}
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return c, nil
}

// Discard drops a session without persisting anything.
func (s *DraftService) Discard(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// resolveRecipients expands "all" mode into the full contact book; contacts
// mode uses the draft's own deduplicated set.
func (s *DraftService) resolveRecipients(ctx context.Context, d *draft.Draft) ([]string, error) {
	if d.Audience.Mode == model.AudienceModeAll {
		return s.ContactRepo.AllPhones(ctx)
	}
	return append([]string{}, d.Audience.Numbers...), nil
}
