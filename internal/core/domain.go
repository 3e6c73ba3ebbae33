package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	// Status is the lifecycle state a transaction carries in the source
	// of record. Only completed transactions enter any aggregate.
	Status string

	Money struct {
		Cents int64
	}

	// TransactionRecord is a local copy of a transaction owned by the
	// external source of record. The engine never mutates it outside the
	// reconciler, which stamps SyncedAt on create and update.
	TransactionRecord struct {
		OriginalID     string
		SubjectID      string
		Description    string
		Amount         Money
		Kind           Kind
		Category       string
		OccurredAt     time.Time
		Status         Status
		LastModifiedAt time.Time
		SyncedAt       time.Time
	}

	// Profile holds the subject identity data synced alongside
	// transactions. It is non-critical: analytics keeps working with a
	// default profile when the source cannot provide one.
	Profile struct {
		SubjectID     string
		Name          string
		Email         string
		Currency      string
		MonthlyIncome Money
		SyncedAt      time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidKind   = errors.New("invalid transaction kind")
	ErrInvalidStatus = errors.New("invalid transaction status")
	ErrEmptyID       = errors.New("empty transaction id")
	ErrEmptySubject  = errors.New("empty subject id")
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return ErrInvalidKind
}

func (s Status) Validate() error {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return nil
	}
	return ErrInvalidStatus
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r TransactionRecord) Validate() error {
	if strings.TrimSpace(r.OriginalID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.SubjectID) == "" {
		return ErrEmptySubject
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.Kind.Validate(); err != nil {
		return err
	}
	if err := r.Status.Validate(); err != nil {
		return err
	}
	if r.OccurredAt.IsZero() {
		return errors.New("zero occurrence date")
	}
	return nil
}

// DefaultProfile is the fallback written when the external source cannot
// serve profile data for a subject.
func DefaultProfile(subjectID string, now time.Time) Profile {
	return Profile{
		SubjectID: subjectID,
		Currency:  "EUR",
		SyncedAt:  now,
	}
}
