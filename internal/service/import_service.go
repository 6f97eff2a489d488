package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/sendkite/broadcast-backend/internal/importer"
	"github.com/sendkite/broadcast-backend/internal/model"
	"github.com/sendkite/broadcast-backend/internal/phone"
	"github.com/sendkite/broadcast-backend/internal/repository"
)

// ErrImportNotFound is returned for unknown or reset import runs.
var ErrImportNotFound = errors.New("import run not found")

// ImportService runs bulk contact imports against the contact book.
type ImportService struct {
	mu   sync.Mutex
	runs map[string]*importer.Run

	ContactRepo repository.ContactRepositoryInterface
	Norm        phone.Normalizer
}

func NewImportService(contacts repository.ContactRepositoryInterface, norm phone.Normalizer) *ImportService {
	return &ImportService{
		runs:        make(map[string]*importer.Run),
		ContactRepo: contacts,
		Norm:        norm,
	}
}

// StartRun parses the raw upload and registers a new run. The returned count
// is the number of rows with a resolvable phone.
func (s *ImportService) StartRun(raw string) (string, int, error) {
	run := importer.NewRun(s.Norm)
	n, err := run.Parse(raw)
	if err != nil {
		return "", 0, err
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.runs[id] = run
	s.mu.Unlock()
	return id, n, nil
}

// Execute processes the parsed rows sequentially, creating contacts through
// the repository. The current contact book seeds the duplicate set; the
// caller refreshes its contact list afterwards.
func (s *ImportService) Execute(ctx context.Context, id string) (importer.Result, error) {
	run, err := s.run(id)
	if err != nil {
		return importer.Result{}, err
	}

	existing, err := s.ContactRepo.AllPhones(ctx)
	if err != nil {
		return importer.Result{}, err
	}
	return run.Execute(ctx, existing, repoCreator{s.ContactRepo})
}

// Progress returns the run's state and tally; safe to poll while running.
func (s *ImportService) Progress(id string) (importer.State, importer.Result, error) {
	run, err := s.run(id)
	if err != nil {
		return "", importer.Result{}, err
	}
	return run.State(), run.Result(), nil
}

// Reset destroys the run, as when the import dialog is dismissed.
func (s *ImportService) Reset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return ErrImportNotFound
	}
	run.Reset()
	delete(s.runs, id)
	return nil
}

func (s *ImportService) run(id string) (*importer.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrImportNotFound
	}
	return run, nil
}

// repoCreator adapts the contact repository to the pipeline's collaborator
// interface. The repository already maps unique violations to
// appErrors.ErrDuplicatePhone.
type repoCreator struct {
	repo repository.ContactRepositoryInterface
}

func (c repoCreator) CreateContact(ctx context.Context, name, canonicalPhone string, tags []string) error {
	return c.repo.Create(ctx, &model.Contact{Name: name, Phone: canonicalPhone, Tags: tags})
}
