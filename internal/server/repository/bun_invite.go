package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	server "github.com/du-events/convite/internal/server/domain"
	shared "github.com/du-events/convite/internal/shared/domain"
	"github.com/du-events/convite/internal/shared/infra"
)

type BunInviteRepository struct {
	db *bun.DB
}

func NewBunInviteRepository(ctx context.Context, db *bun.DB) (*BunInviteRepository, error) {
	r := &BunInviteRepository{
		db: db,
	}
	tx := infra.ExtractTx(ctx, r.db)
	_, err := tx.NewCreateTable().
		Model((*invite)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return r, fmt.Errorf("failed to create repository: %w", err)
	}
	return r, nil
}

func (r *BunInviteRepository) Create(ctx context.Context, inv server.Invite) error {
	tx := infra.ExtractTx(ctx, r.db)
	i := new(invite)
	i.fromDomain(inv)
	res, err := tx.NewInsert().
		Model(i).
		Ignore().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to create invite %q: %w", inv.Token, shared.ErrConflict)
	}
	return nil
}

func (r *BunInviteRepository) GetByToken(ctx context.Context, token string) (server.Invite, error) {
	tx := infra.ExtractTx(ctx, r.db)
	i := new(invite)
	err := tx.NewSelect().
		Model(i).
		Relation("Student").
		Where("i.token = ?", token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = shared.ErrNotExist
		}
		return server.Invite{}, fmt.Errorf("failed to get invite: %w", err)
	}
	return i.toDomain(), nil
}

// MarkUsed flips UNUSED to USED with a single guarded update. The row
// count decides the outcome, so racing callers cannot both win.
func (r *BunInviteRepository) MarkUsed(ctx context.Context, token, usedBy string, now time.Time) (server.AdmitOutcome, server.Invite, error) {
	tx := infra.ExtractTx(ctx, r.db)
	res, err := tx.NewUpdate().
		Model((*invite)(nil)).
		Set("status = ?", server.StatusUsed).
		Set("used_at = ?", now).
		Set("used_by = ?", usedBy).
		Where("token = ?", token).
		Where("status = ?", server.StatusUnused).
		Exec(ctx)
	if err != nil {
		return server.OutcomeNotFound, server.Invite{}, fmt.Errorf("failed to mark invite used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return server.OutcomeNotFound, server.Invite{}, fmt.Errorf("failed to mark invite used: %w", err)
	}

	inv, err := r.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotExist) {
			return server.OutcomeNotFound, server.Invite{}, nil
		}
		return server.OutcomeNotFound, server.Invite{}, err
	}
	if n == 0 {
		// Row exists but the guard did not fire: someone else already
		// admitted this guest. USED is terminal, so the re-read is stable.
		return server.OutcomeAlreadyUsed, inv, nil
	}
	return server.OutcomeAdmitted, inv, nil
}

func (r *BunInviteRepository) List(ctx context.Context, f server.InviteFilter) ([]server.Invite, error) {
	tx := infra.ExtractTx(ctx, r.db)
	var rows []invite
	q := tx.NewSelect().
		Model(&rows).
		Relation("Student").
		Order("i.created_at DESC").
		Order("i.token DESC")
	if f.MatricNo != "" {
		q = q.Where("student.matric_no = ?", f.MatricNo)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	invs := make([]server.Invite, 0, len(rows))
	for i := range rows {
		invs = append(invs, rows[i].toDomain())
	}
	return invs, nil
}

type invite struct {
	bun.BaseModel `bun:"table:invites,alias:i"`

	Token       string    `bun:",pk"`
	StudentID   uuid.UUID `bun:",notnull"`
	GuestName   string    `bun:",notnull"`
	GuestPhone  string    `bun:",notnull"`
	Status      server.InviteStatus `bun:",notnull"`
	ArtifactURL string
	Filename    string
	CreatedAt   time.Time  `bun:",notnull"`
	UsedAt      *time.Time `bun:",nullzero"`
	UsedBy      string     `bun:",nullzero"`

	Student *student `bun:"rel:belongs-to,join:student_id=id"`
}

func (i *invite) toDomain() server.Invite {
	inv := server.Invite{
		Token:       i.Token,
		StudentID:   i.StudentID,
		GuestName:   i.GuestName,
		GuestPhone:  i.GuestPhone,
		Status:      i.Status,
		ArtifactURL: i.ArtifactURL,
		Filename:    i.Filename,
		CreatedAt:   i.CreatedAt,
		UsedAt:      i.UsedAt,
		UsedBy:      i.UsedBy,
	}
	if i.Student != nil {
		inv.Student = server.Student{
			ID:          i.Student.ID,
			MatricNo:    i.Student.MatricNo,
			StudentName: i.Student.StudentName,
			Phone:       i.Student.Phone,
			CreatedAt:   i.Student.CreatedAt,
			UpdatedAt:   i.Student.UpdatedAt,
		}
	}
	return inv
}

func (i *invite) fromDomain(inv server.Invite) {
	i.Token = inv.Token
	i.StudentID = inv.StudentID
	i.GuestName = inv.GuestName
	i.GuestPhone = inv.GuestPhone
	i.Status = inv.Status
	i.ArtifactURL = inv.ArtifactURL
	i.Filename = inv.Filename
	i.CreatedAt = inv.CreatedAt
	i.UsedAt = inv.UsedAt
	i.UsedBy = inv.UsedBy
}
