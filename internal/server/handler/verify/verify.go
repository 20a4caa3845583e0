package verify

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	server "github.com/du-events/convite/internal/server/domain"
	"github.com/du-events/convite/internal/server/handler/admin"
	"github.com/du-events/convite/internal/server/service"
	shared "github.com/du-events/convite/internal/shared/domain"
)

// PinUsedBy is recorded instead of the PIN itself; the shared secret
// never lands in the audit trail.
const PinUsedBy = "pin:gate"

// ScannerUsedBy identifies admissions from the HTML tap-to-admit flow.
const ScannerUsedBy = "scanner"

type Handler struct {
	Gate *service.Gate

	// GatePIN is the shared secret for the unauthenticated admit path.
	// Empty means the path is unconfigured and refuses all requests.
	GatePIN string

	Logger *zerolog.Logger
}

type tokenRequest struct {
	Token string `json:"token"`
}

type pinRequest struct {
	Token string `json:"token"`
	Pin   string `json:"pin"`
}

func (h *Handler) Check(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Token required"})
		return
	}
	inv, err := h.Gate.Check(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Invalid token"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"status": inv.Status,
		"guest":  gin.H{"guestName": inv.GuestName},
		"student": gin.H{
			"studentName": inv.Student.StudentName,
			"matricNo":    inv.Student.MatricNo,
		},
		"usedAt": usedAt(inv),
		"usedBy": usedBy(inv),
	})
}

// Use admits a guest on behalf of an authenticated staff member; the
// staff email from the bearer token becomes the usedBy identity.
func (h *Handler) Use(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Token required"})
		return
	}
	h.admit(c, req.Token, admin.StaffEmail(c))
}

// UseWithPin admits through the shared gate PIN instead of a staff
// account. A missing server-side PIN is a misconfiguration, not an auth
// failure, and is reported as such.
func (h *Handler) UseWithPin(c *gin.Context) {
	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.Pin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing token or PIN"})
		return
	}
	if h.GatePIN == "" {
		h.serverError(c, errors.New("gate PIN not configured"))
		return
	}
	if req.Pin != h.GatePIN {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "Invalid PIN"})
		return
	}
	h.admit(c, req.Token, PinUsedBy)
}

func (h *Handler) admit(c *gin.Context, token, by string) {
	outcome, inv, err := h.Gate.Admit(c.Request.Context(), token, by)
	if err != nil {
		h.serverError(c, err)
		return
	}
	switch outcome {
	case server.OutcomeAdmitted:
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"message": "Guest admitted",
			"guest":   guestBlock(inv),
		})
	case server.OutcomeAlreadyUsed:
		c.JSON(http.StatusConflict, gin.H{
			"ok":    false,
			"error": "Already used",
			"guest": guestBlock(inv),
		})
	default:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Invalid token"})
	}
}

func (h *Handler) serverError(c *gin.Context, err error) {
	if h.Logger != nil {
		h.Logger.Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
}

func guestBlock(inv server.Invite) gin.H {
	return gin.H{
		"guestName": inv.GuestName,
		"status":    inv.Status,
		"usedAt":    usedAt(inv),
		"usedBy":    usedBy(inv),
	}
}

func usedAt(inv server.Invite) any {
	if inv.UsedAt == nil {
		return nil
	}
	return inv.UsedAt.UTC().Format(time.RFC3339)
}

func usedBy(inv server.Invite) any {
	if inv.UsedBy == "" {
		return nil
	}
	return inv.UsedBy
}
