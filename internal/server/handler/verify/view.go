package verify

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	server "github.com/du-events/convite/internal/server/domain"
	shared "github.com/du-events/convite/internal/shared/domain"
)

// View serves the page a phone camera lands on after scanning a QR
// code: invite details plus an "Admit & Mark Used" link. Marking routes
// through the same admission path as the JSON endpoints.
func (h *Handler) View(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	token := server.NormalizeToken(c.Param("token"))
	if token == "" {
		h.renderPage(c, http.StatusBadRequest, viewData{
			Title:   "Invalid QR",
			Message: "No token provided.",
		})
		return
	}

	if c.Query("mark") == "1" {
		outcome, inv, err := h.Gate.Admit(c.Request.Context(), token, ScannerUsedBy)
		if err != nil {
			h.renderPage(c, http.StatusInternalServerError, viewData{
				Title:   "Server Error",
				Message: "Please try again later.",
			})
			return
		}
		switch outcome {
		case server.OutcomeAdmitted:
			h.renderPage(c, http.StatusOK, detailsData("Admitted", inv))
		case server.OutcomeAlreadyUsed:
			h.renderPage(c, http.StatusOK, detailsData("Already Used", inv))
		default:
			h.renderPage(c, http.StatusNotFound, viewData{
				Title:   "Invalid QR",
				Message: "This code is not recognized.",
			})
		}
		return
	}

	inv, err := h.Gate.Check(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, shared.ErrNotExist) {
			h.renderPage(c, http.StatusNotFound, viewData{
				Title:   "Invalid QR",
				Message: "This code is not recognized.",
			})
			return
		}
		h.renderPage(c, http.StatusInternalServerError, viewData{
			Title:   "Server Error",
			Message: "Please try again later.",
		})
		return
	}

	if inv.Status == server.StatusUsed {
		h.renderPage(c, http.StatusOK, detailsData("Already Used", inv))
		return
	}
	d := detailsData("Valid Code", inv)
	d.AdmitToken = inv.Token
	h.renderPage(c, http.StatusOK, d)
}

type viewData struct {
	Title       string
	Message     string
	GuestName   string
	StudentName string
	MatricNo    string
	Status      server.InviteStatus
	UsedAt      string
	AdmitToken  string
	HasDetails  bool
}

func detailsData(title string, inv server.Invite) viewData {
	d := viewData{
		Title:       title,
		GuestName:   inv.GuestName,
		StudentName: inv.Student.StudentName,
		MatricNo:    inv.Student.MatricNo,
		Status:      inv.Status,
		HasDetails:  true,
	}
	if inv.UsedAt != nil {
		d.UsedAt = inv.UsedAt.Local().Format(time.RFC822)
	}
	return d
}

func (h *Handler) renderPage(c *gin.Context, code int, d viewData) {
	c.Status(code)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(c.Writer, d); err != nil && h.Logger != nil {
		h.Logger.Error().Err(err).Msg("failed to render verify page")
	}
}

var pageTmpl = template.Must(template.New("verify").Parse(`<!doctype html>
<html>
<head>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>{{.Title}}</title>
</head>
<body style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Arial,sans-serif;margin:0;background:#f8fafc;color:#0f172a">
  <div style="max-width:720px;margin:0 auto;padding:20px">
    <div style="font-weight:900;color:#0B2E4E;font-size:20px;margin-bottom:12px">
      Dominion University &bull; Verification
    </div>
    <div style="border:1px solid #e5e7eb;background:#fff;border-radius:16px;box-shadow:0 1px 2px rgba(0,0,0,.04)">
      <div style="padding:14px 18px;border-bottom:1px solid #e5e7eb;font-weight:900;color:#0B2E4E">
        {{.Title}}
      </div>
      <div style="padding:18px">
        {{if .HasDetails}}
        <div style="margin-top:10px;font-size:16px;line-height:1.6">
          <div><b>Guest:</b> {{.GuestName}}</div>
          <div><b>Student:</b> {{.StudentName}}</div>
          <div><b>Matric No:</b> {{.MatricNo}}</div>
          <div><b>Status:</b>
            {{if eq .Status "USED"}}<span style="color:#dc2626;font-weight:800">USED</span>
            {{else}}<span style="color:#16a34a;font-weight:800">UNUSED</span>{{end}}
          </div>
          {{if .UsedAt}}
          <div style="margin-top:8px;color:#64748b;font-size:14px">Used at: {{.UsedAt}}</div>
          {{end}}
        </div>
        {{if .AdmitToken}}
        <div style="margin-top:14px;text-align:center">
          <a href="/verify/{{.AdmitToken}}?mark=1"
             style="display:inline-block;padding:12px 20px;background:#0B2E4E;color:#fff;border-radius:10px;text-decoration:none;font-weight:800">
             Admit &amp; Mark Used
          </a>
        </div>
        {{end}}
        {{else}}
        <div>{{.Message}}</div>
        {{end}}
      </div>
    </div>
    <div style="margin-top:10px;font-size:12px;color:#64748b;text-align:center">
      Tip: Bookmark this page for quick gate admissions.
    </div>
  </div>
</body>
</html>
`))
