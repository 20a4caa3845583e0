package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID          uuid.UUID
	MatricNo    string
	StudentName string
	Phone       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StudentRepository interface {
	// Upsert merges by matriculation number, so re-submitting a student
	// updates the existing row instead of duplicating it.
	Upsert(ctx context.Context, s Student) (Student, error)
	GetByMatricNo(ctx context.Context, matricNo string) (Student, error)
}
