// Package importer implements the bulk contact import pipeline: parse a
// delimited upload, then create contacts row by row against the contact
// book, tracking created/skipped/failed counts with per-row failure
// attribution.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sendkite/broadcast-backend/internal/csvparse"
	appErrors "github.com/sendkite/broadcast-backend/internal/errors"
	"github.com/sendkite/broadcast-backend/internal/phone"
)

// ErrMissingPhoneColumn aborts the whole import before any row is attempted.
var ErrMissingPhoneColumn = errors.New("phone column not found in file")

// State of one import run. Idle is reachable again via Reset.
type State string

const (
	StateIdle    State = "idle"
	StateParsed  State = "parsed"
	StateRunning State = "running"
	StateDone    State = "done"
)

// Row is one parsed upload row with a resolvable phone. RowNumber is the
// row's position in the file, counting the header as row 1.
type Row struct {
	RowNumber int      `json:"row_number"`
	Name      string   `json:"name,omitempty"`
	Phone     string   `json:"phone"`
	Tags      []string `json:"tags,omitempty"`
}

// Failure records one row the collaborator rejected.
type Failure struct {
	RowNumber int    `json:"row_number"`
	Phone     string `json:"phone"`
	Reason    string `json:"reason"`
}

// Result is the running tally of an import. Created+Skipped+Failed always
// equals Current, and Current equals Total once the run completes.
type Result struct {
	Current  int       `json:"current"`
	Total    int       `json:"total"`
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}

// ContactCreator is the external collaborator that persists a new contact.
// It returns appErrors.ErrDuplicatePhone when the phone already exists
// server-side, which the pipeline counts as a skip.
type ContactCreator interface {
	CreateContact(ctx context.Context, name, canonicalPhone string, tags []string) error
}

// Run is one import run. Rows are processed sequentially so that later rows
// observe duplicates created by earlier rows in the same run; the mutex only
// guards progress snapshots read while the run executes.
type Run struct {
	mu     sync.Mutex
	norm   phone.Normalizer
	state  State
	rows   []Row
	result Result
}

func NewRun(norm phone.Normalizer) *Run {
	return &Run{norm: norm, state: StateIdle}
}

// Parse consumes the raw upload. The header row must contain a phone column
// (case-insensitive); name and tags columns are optional. Rows without a
// resolvable phone are dropped silently and do not count as failures.
func (r *Run) Parse(raw string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return 0, fmt.Errorf("import already %s, reset first", r.state)
	}

	records := csvparse.Parse(raw)
	if len(records) == 0 {
		return 0, ErrMissingPhoneColumn
	}

	header := records[0]
	phoneIdx, nameIdx, tagsIdx := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "phone":
			phoneIdx = i
		case "name":
			nameIdx = i
		case "tags":
			tagsIdx = i
		}
	}
	if phoneIdx == -1 {
		return 0, ErrMissingPhoneColumn
	}

	rows := []Row{}
	for i, rec := range records[1:] {
		var rawPhone string
		if phoneIdx < len(rec) {
			rawPhone = rec[phoneIdx]
		}
		canonical := r.norm.Normalize(rawPhone)
		if canonical == "" {
			continue
		}
		row := Row{RowNumber: i + 2, Phone: canonical}
		if nameIdx != -1 && nameIdx < len(rec) {
			row.Name = rec[nameIdx]
		}
		if tagsIdx != -1 && tagsIdx < len(rec) {
			row.Tags = NormalizeTags(rec[tagsIdx])
		}
		rows = append(rows, row)
	}

	r.rows = rows
	r.result = Result{Total: len(rows)}
	r.state = StateParsed
	return len(rows), nil
}

// Execute processes the parsed rows sequentially against the creator.
// existingPhones is the caller's current contact book; duplicates found
// there, created earlier in this run, or reported as conflicts by the
// creator are all counted as skipped without distinction. Cancellation is
// checked at the top of each row iteration and leaves the counts consistent
// with the rows actually attempted.
func (r *Run) Execute(ctx context.Context, existingPhones []string, creator ContactCreator) (Result, error) {
	r.mu.Lock()
	if r.state != StateParsed {
		state := r.state
		r.mu.Unlock()
		return Result{}, fmt.Errorf("import is %s, expected %s", state, StateParsed)
	}
	r.state = StateRunning
	rows := r.rows
	r.mu.Unlock()

	members := make(map[string]struct{}, len(existingPhones))
	for _, p := range existingPhones {
		members[p] = struct{}{}
	}

	var runErr error
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if _, dup := members[row.Phone]; dup {
			r.bump(func(res *Result) { res.Skipped++ })
			continue
		}

		err := creator.CreateContact(ctx, row.Name, row.Phone, row.Tags)
		switch {
		case err == nil:
			members[row.Phone] = struct{}{}
			r.bump(func(res *Result) { res.Created++ })
		case errors.Is(err, appErrors.ErrDuplicatePhone):
			members[row.Phone] = struct{}{}
			r.bump(func(res *Result) { res.Skipped++ })
		default:
			failure := Failure{RowNumber: row.RowNumber, Phone: row.Phone, Reason: err.Error()}
			r.bump(func(res *Result) {
				res.Failed++
				res.Failures = append(res.Failures, failure)
			})
		}
	}

	r.mu.Lock()
	r.state = StateDone
	out := r.snapshotLocked()
	r.mu.Unlock()
	return out, runErr
}

// bump applies a counter update and advances Current under the lock.
func (r *Run) bump(fn func(*Result)) {
	r.mu.Lock()
	fn(&r.result)
	r.result.Current++
	r.mu.Unlock()
}

// State returns the run's current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Rows returns the parsed rows.
func (r *Run) Rows() []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Row{}, r.rows...)
}

// Result returns a snapshot of the tally; safe to call while running.
func (r *Run) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Run) snapshotLocked() Result {
	out := r.result
	out.Failures = append([]Failure{}, r.result.Failures...)
	return out
}

// Reset destroys the run's rows and tally and returns it to Idle.
func (r *Run) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	r.result = Result{}
	r.state = StateIdle
}

// NormalizeTags is the canonical tag rule used everywhere tags are stored or
// filtered: split on |, comma or semicolon, trim, lowercase, drop empties.
func NormalizeTags(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ',' || r == ';'
	})
	tags := []string{}
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
