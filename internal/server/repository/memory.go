package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	server "github.com/du-events/convite/internal/server/domain"
	shared "github.com/du-events/convite/internal/shared/domain"
)

// MemoryStudentRepository and MemoryInviteRepository back the same
// contracts as the bun implementations without a database. They are the
// second storage backend (single-process runs, tests); per-key atomicity
// comes from holding the mutex across the whole conditional write.

type MemoryStudentRepository struct {
	mu       sync.RWMutex
	byMatric map[string]server.Student
	byID     map[uuid.UUID]server.Student
}

func NewMemoryStudentRepository() *MemoryStudentRepository {
	return &MemoryStudentRepository{
		byMatric: make(map[string]server.Student),
		byID:     make(map[uuid.UUID]server.Student),
	}
}

func (r *MemoryStudentRepository) Upsert(ctx context.Context, st server.Student) (server.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byMatric[st.MatricNo]; ok {
		cur.StudentName = st.StudentName
		cur.Phone = st.Phone
		cur.UpdatedAt = st.UpdatedAt
		r.byMatric[st.MatricNo] = cur
		r.byID[cur.ID] = cur
		return cur, nil
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	r.byMatric[st.MatricNo] = st
	r.byID[st.ID] = st
	return st, nil
}

func (r *MemoryStudentRepository) GetByMatricNo(ctx context.Context, matricNo string) (server.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byMatric[matricNo]
	if !ok {
		return server.Student{}, fmt.Errorf("failed to get student: %w", shared.ErrNotExist)
	}
	return st, nil
}

func (r *MemoryStudentRepository) getByID(id uuid.UUID) (server.Student, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byID[id]
	return st, ok
}

type MemoryInviteRepository struct {
	mu       sync.RWMutex
	byToken  map[string]server.Invite
	order    []string
	students *MemoryStudentRepository
}

func NewMemoryInviteRepository(students *MemoryStudentRepository) *MemoryInviteRepository {
	return &MemoryInviteRepository{
		byToken:  make(map[string]server.Invite),
		students: students,
	}
}

func (r *MemoryInviteRepository) Create(ctx context.Context, inv server.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byToken[inv.Token]; ok {
		return fmt.Errorf("failed to create invite %q: %w", inv.Token, shared.ErrConflict)
	}
	inv.Student = server.Student{}
	r.byToken[inv.Token] = inv
	r.order = append(r.order, inv.Token)
	return nil
}

func (r *MemoryInviteRepository) GetByToken(ctx context.Context, token string) (server.Invite, error) {
	r.mu.RLock()
	inv, ok := r.byToken[token]
	r.mu.RUnlock()
	if !ok {
		return server.Invite{}, fmt.Errorf("failed to get invite: %w", shared.ErrNotExist)
	}
	return r.withStudent(inv), nil
}

func (r *MemoryInviteRepository) MarkUsed(ctx context.Context, token, usedBy string, now time.Time) (server.AdmitOutcome, server.Invite, error) {
	r.mu.Lock()
	inv, ok := r.byToken[token]
	if !ok {
		r.mu.Unlock()
		return server.OutcomeNotFound, server.Invite{}, nil
	}
	if inv.Status == server.StatusUsed {
		r.mu.Unlock()
		return server.OutcomeAlreadyUsed, r.withStudent(inv), nil
	}
	used := now
	inv.Status = server.StatusUsed
	inv.UsedAt = &used
	inv.UsedBy = usedBy
	r.byToken[token] = inv
	r.mu.Unlock()
	return server.OutcomeAdmitted, r.withStudent(inv), nil
}

func (r *MemoryInviteRepository) List(ctx context.Context, f server.InviteFilter) ([]server.Invite, error) {
	r.mu.RLock()
	invs := make([]server.Invite, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		invs = append(invs, r.byToken[r.order[i]])
	}
	r.mu.RUnlock()
	sort.SliceStable(invs, func(a, b int) bool {
		return invs[a].CreatedAt.After(invs[b].CreatedAt)
	})
	out := invs[:0]
	for _, inv := range invs {
		inv = r.withStudent(inv)
		if f.MatricNo != "" && inv.Student.MatricNo != f.MatricNo {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *MemoryInviteRepository) withStudent(inv server.Invite) server.Invite {
	if r.students != nil {
		if st, ok := r.students.getByID(inv.StudentID); ok {
			inv.Student = st
		}
	}
	return inv
}
