package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"

	server "github.com/du-events/convite/internal/server/domain"
	shared "github.com/du-events/convite/internal/shared/domain"
	"github.com/du-events/convite/internal/shared/infra"
)

type BunStudentRepository struct {
	db *bun.DB
}

func NewBunStudentRepository(ctx context.Context, db *bun.DB) (*BunStudentRepository, error) {
	r := &BunStudentRepository{
		db: db,
	}
	tx := infra.ExtractTx(ctx, r.db)
	_, err := tx.NewCreateTable().
		Model((*student)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return r, fmt.Errorf("failed to create repository: %w", err)
	}
	return r, nil
}

func (r *BunStudentRepository) Upsert(ctx context.Context, st server.Student) (server.Student, error) {
	tx := infra.ExtractTx(ctx, r.db)
	s := new(student)
	copier.Copy(s, &st)
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := tx.NewInsert().
		Model(s).
		On("CONFLICT (matric_no) DO UPDATE").
		Set("student_name = EXCLUDED.student_name").
		Set("phone = EXCLUDED.phone").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return server.Student{}, fmt.Errorf("failed to upsert student: %w", err)
	}
	// Re-read so the caller sees the surviving row's id and created_at
	// when the insert merged into an existing student.
	return r.GetByMatricNo(ctx, st.MatricNo)
}

func (r *BunStudentRepository) GetByMatricNo(ctx context.Context, matricNo string) (server.Student, error) {
	tx := infra.ExtractTx(ctx, r.db)
	s := new(student)
	st := server.Student{}
	err := tx.NewSelect().
		Model(s).
		Where("matric_no = ?", matricNo).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = shared.ErrNotExist
		}
		return st, fmt.Errorf("failed to get student: %w", err)
	}
	copier.Copy(&st, s)
	return st, nil
}

type student struct {
	bun.BaseModel `bun:"table:students"`

	ID          uuid.UUID `bun:",pk"`
	MatricNo    string    `bun:",unique,notnull"`
	StudentName string    `bun:",notnull"`
	Phone       string    `bun:",nullzero"`
	CreatedAt   time.Time `bun:",notnull"`
	UpdatedAt   time.Time `bun:",notnull"`
}
