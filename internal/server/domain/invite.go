package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	StatusUnused InviteStatus = "UNUSED"
	StatusUsed   InviteStatus = "USED"
)

// Invite is the per-guest admission record. The token is its identity;
// status only ever moves forward from UNUSED to USED.
type Invite struct {
	Token       string
	StudentID   uuid.UUID
	GuestName   string
	GuestPhone  string
	Status      InviteStatus
	ArtifactURL string
	Filename    string
	CreatedAt   time.Time
	UsedAt      *time.Time
	UsedBy      string

	// Student is populated on reads that join the owning student.
	Student Student
}

type AdmitOutcome int

const (
	OutcomeNotFound AdmitOutcome = iota
	OutcomeAdmitted
	OutcomeAlreadyUsed
)

type InviteFilter struct {
	MatricNo string
}

type InviteRepository interface {
	Create(ctx context.Context, inv Invite) error
	GetByToken(ctx context.Context, token string) (Invite, error)

	// MarkUsed is the single conditional UNUSED -> USED transition.
	// Implementations must perform it as one guarded write so that
	// concurrent calls on the same token admit exactly once.
	MarkUsed(ctx context.Context, token, usedBy string, now time.Time) (AdmitOutcome, Invite, error)

	// List returns invites newest first, optionally scoped to a student.
	List(ctx context.Context, f InviteFilter) ([]Invite, error)
}
