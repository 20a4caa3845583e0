package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	server "github.com/du-events/convite/internal/server/domain"
)

// Gate is the admission state machine. Every entry point that can flip
// an invite to USED goes through Admit; nothing else writes status.
type Gate struct {
	Invites server.InviteRepository
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// Check is the read-only lookup behind the scanner's pre-admit screen.
func (g *Gate) Check(ctx context.Context, rawToken string) (server.Invite, error) {
	token := server.NormalizeToken(rawToken)
	return g.Invites.GetByToken(ctx, token)
}

// Admit transitions the invite UNUSED -> USED exactly once. Repeated
// calls report AlreadyUsed with the original admission metadata so gate
// staff see who let the guest in, and when.
func (g *Gate) Admit(ctx context.Context, rawToken, usedBy string) (server.AdmitOutcome, server.Invite, error) {
	token := server.NormalizeToken(rawToken)
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	outcome, inv, err := g.Invites.MarkUsed(ctx, token, usedBy, now)
	if err != nil {
		return outcome, inv, err
	}
	if g.Logger != nil {
		g.Logger.Info().
			Str("token", token).
			Str("usedBy", usedBy).
			Int("outcome", int(outcome)).
			Msg("admission attempt")
	}
	return outcome, inv, nil
}
