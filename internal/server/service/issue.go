package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	server "github.com/du-events/convite/internal/server/domain"
	shared "github.com/du-events/convite/internal/shared/domain"
)

// Renderer produces the guest-facing invite artifact (PDF with the QR
// code for the token). Rendering is a collaborator concern; the issuer
// only cares that it returns bytes or fails.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// ArtifactStore persists a rendered artifact and returns its public URL.
type ArtifactStore interface {
	Put(ctx context.Context, filename string, data []byte) (string, error)
}

type RenderRequest struct {
	StudentName string
	MatricNo    string
	GuestName   string
	Token       string
	Meta        server.EventMeta
}

type StudentInput struct {
	MatricNo    string `json:"matricNo"`
	StudentName string `json:"studentName"`
	Phone       string `json:"phone"`
}

type GuestInput struct {
	GuestName string `json:"guestName"`
	Phone     string `json:"phone"`
}

type IssueRequest struct {
	Student StudentInput `json:"student"`
	Guests  []GuestInput `json:"guests"`
}

// IssueEntry is the per-guest line item of a batch. Either PublicURL or
// Err is set, never both.
type IssueEntry struct {
	Token        string              `json:"token,omitempty"`
	GuestName    string              `json:"guestName"`
	Phone        string              `json:"phone"`
	Filename     string              `json:"filename,omitempty"`
	PublicURL    string              `json:"publicUrl,omitempty"`
	WhatsAppLink string              `json:"whatsappLink,omitempty"`
	Status       server.InviteStatus `json:"status,omitempty"`
	Err          string              `json:"error,omitempty"`
}

type Issuer struct {
	Students  server.StudentRepository
	Invites   server.InviteRepository
	Renderer  Renderer
	Artifacts ArtifactStore
	TXRunner  shared.TransactionRunner

	Event          server.EventMeta
	DefaultCountry string

	// UploadTimeout bounds each guest's render+store round trip.
	UploadTimeout time.Duration

	Rand   io.Reader
	Logger *zerolog.Logger
	Now    func() time.Time
}

// Issue creates one invite per valid guest. The student upsert is a
// precondition and aborts the whole batch on failure; after that the
// batch is never all-or-nothing. Guests missing a name or phone are
// skipped, and a render or upload failure records an error entry while
// the rest of the batch continues.
func (s *Issuer) Issue(ctx context.Context, req IssueRequest) ([]IssueEntry, error) {
	if req.Student.MatricNo == "" || req.Student.StudentName == "" {
		return nil, fmt.Errorf("student.matricNo and student.studentName are required: %w", shared.ErrInvalid)
	}
	if len(req.Guests) == 0 {
		return nil, fmt.Errorf("at least one guest is required: %w", shared.ErrInvalid)
	}

	now := s.now()
	var st server.Student
	err := s.TXRunner.Exec(ctx, func(ctx context.Context) error {
		var err error
		st, err = s.Students.Upsert(ctx, server.Student{
			MatricNo:    req.Student.MatricNo,
			StudentName: req.Student.StudentName,
			Phone:       req.Student.Phone,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert student: %w", err)
	}

	entries := make([]IssueEntry, 0, len(req.Guests))
	for _, g := range req.Guests {
		guestName := strings.TrimSpace(g.GuestName)
		phone := strings.TrimSpace(g.Phone)
		if guestName == "" || phone == "" {
			continue
		}
		entry, err := s.issueOne(ctx, st, guestName, phone)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error().
					Err(err).
					Str("guest", guestName).
					Str("matricNo", st.MatricNo).
					Msg("invite failed")
			}
			entries = append(entries, IssueEntry{
				GuestName: guestName,
				Phone:     phone,
				Err:       err.Error(),
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Issuer) issueOne(ctx context.Context, st server.Student, guestName, phone string) (IssueEntry, error) {
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.Reader
	}
	token, err := server.NewToken(rnd)
	if err != nil {
		return IssueEntry{}, err
	}

	filename := fmt.Sprintf("Invite_%s_%s.pdf", st.MatricNo, safeName(guestName))

	// Rendering and upload run before anything is persisted, so a crash
	// here leaves no invite row behind.
	rctx := ctx
	if s.UploadTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, s.UploadTimeout)
		defer cancel()
	}
	pdf, err := s.Renderer.Render(rctx, RenderRequest{
		StudentName: st.StudentName,
		MatricNo:    st.MatricNo,
		GuestName:   guestName,
		Token:       token,
		Meta:        s.Event,
	})
	if err != nil {
		return IssueEntry{}, fmt.Errorf("failed to render invite: %w", err)
	}
	publicURL, err := s.Artifacts.Put(rctx, filename, pdf)
	if err != nil {
		return IssueEntry{}, fmt.Errorf("failed to store invite: %w", err)
	}

	err = s.Invites.Create(ctx, server.Invite{
		Token:       token,
		StudentID:   st.ID,
		GuestName:   guestName,
		GuestPhone:  phone,
		Status:      server.StatusUnused,
		ArtifactURL: publicURL,
		Filename:    filename,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return IssueEntry{}, err
	}

	caption := BuildCaption(guestName, publicURL, s.Event)
	var waLink string
	if e164 := ToE164(phone, s.DefaultCountry); e164 != "" {
		waLink = WhatsAppLink(e164, caption)
	}
	return IssueEntry{
		Token:        token,
		GuestName:    guestName,
		Phone:        phone,
		Filename:     filename,
		PublicURL:    publicURL,
		WhatsAppLink: waLink,
		Status:       server.StatusUnused,
	}, nil
}

func (s *Issuer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func safeName(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return b.String()
}
