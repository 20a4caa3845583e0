package admin

import (
	"encoding/csv"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	server "github.com/du-events/convite/internal/server/domain"
	"github.com/du-events/convite/internal/server/service"
	shared "github.com/du-events/convite/internal/shared/domain"
)

type Handler struct {
	Issuer  *service.Issuer
	Invites server.InviteRepository
	Logger  *zerolog.Logger
}

// CreateInvites issues one invite per valid guest in the batch. The
// response mirrors the request order for every guest that was processed;
// failed line items carry an error instead of a publicUrl.
func (h *Handler) CreateInvites(c *gin.Context) {
	var req service.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}
	files, err := h.Issuer.Issue(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, shared.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		if h.Logger != nil {
			h.Logger.Error().Err(err).Msg("issuance failed")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": files})
}

// ExportInvites streams the invite register as CSV, newest first,
// optionally scoped to one student's matric number.
func (h *Handler) ExportInvites(c *gin.Context) {
	invs, err := h.Invites.List(c.Request.Context(), server.InviteFilter{
		MatricNo: c.Query("matricNo"),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error().Err(err).Msg("export failed")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="invites.csv"`)
	w := csv.NewWriter(c.Writer)
	w.Write([]string{"token", "guestName", "guestPhone", "matricNo", "studentName", "status", "createdAt", "usedAt", "usedBy"})
	for _, inv := range invs {
		usedAt := ""
		if inv.UsedAt != nil {
			usedAt = inv.UsedAt.UTC().Format(time.RFC3339)
		}
		w.Write([]string{
			inv.Token,
			inv.GuestName,
			inv.GuestPhone,
			inv.Student.MatricNo,
			inv.Student.StudentName,
			string(inv.Status),
			inv.CreatedAt.UTC().Format(time.RFC3339),
			usedAt,
			inv.UsedBy,
		})
	}
	w.Flush()
}
