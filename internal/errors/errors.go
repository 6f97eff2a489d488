package appErrors

import (
	"errors"
	"fmt"
)

// ErrDuplicatePhone signals that a contact with the same canonical phone
// already exists. Callers treat it as a skip, not a failure.
var ErrDuplicatePhone = errors.New("phone already exists")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ValidationError is a recoverable, human-readable step validation failure.
// It is always returned as a value, never panicked.
type ValidationError struct {
	Step    int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(step int, msg string) error {
	return &ValidationError{Step: step, Message: msg}
}
