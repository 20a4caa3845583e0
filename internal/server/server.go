package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/du-events/convite/internal/server/handler/admin"
	"github.com/du-events/convite/internal/server/handler/verify"
)

type Server struct {
	Addr   string
	Logger *zerolog.Logger

	Verify *verify.Handler
	Admin  *admin.Handler

	// JWTSecret and AdminEmails configure the staff auth middleware
	// shared by the issuance and staff-admit routes.
	JWTSecret   string
	AdminEmails []string

	// ArtifactDir is served under /files so invite links resolve.
	ArtifactDir string
}

func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "name": "Convocation Invites API"})
	})

	if s.ArtifactDir != "" {
		r.Static("/files", s.ArtifactDir)
	}

	staff := admin.RequireStaff(s.JWTSecret, s.AdminEmails)

	r.POST("/verify/check", s.Verify.Check)
	r.POST("/verify/use", staff, s.Verify.Use)
	r.POST("/verify/use-with-pin", s.Verify.UseWithPin)
	r.GET("/verify/:token", s.Verify.View)

	r.POST("/admin/invites", staff, s.Admin.CreateInvites)
	r.GET("/admin/invites.csv", staff, s.Admin.ExportInvites)

	return r
}

func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to init server: %w", err)
	}
	s.Logger.Info().
		Str("address", s.Addr).
		Msg("started server")

	inst := &http.Server{
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.Logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		inst.Shutdown(shutdownCtx)
	}()

	if err := inst.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
