package server_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/du-events/convite/internal/server"
	serverdomain "github.com/du-events/convite/internal/server/domain"
	"github.com/du-events/convite/internal/server/handler/admin"
	"github.com/du-events/convite/internal/server/handler/verify"
	"github.com/du-events/convite/internal/server/repository"
	"github.com/du-events/convite/internal/server/service"
)

const (
	testSecret = "test-secret"
	staffEmail = "staff@du.edu"
	gatePIN    = "4821"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(ctx context.Context, req service.RenderRequest) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

type fakeStore struct{}

func (fakeStore) Put(ctx context.Context, filename string, data []byte) (string, error) {
	return "http://localhost:8080/files/" + filename, nil
}

type passRunner struct{}

func (passRunner) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestEngine(t *testing.T) http.Handler {
	t.Helper()
	students := repository.NewMemoryStudentRepository()
	invites := repository.NewMemoryInviteRepository(students)
	issuer := &service.Issuer{
		Students:  students,
		Invites:   invites,
		Renderer:  fakeRenderer{},
		Artifacts: fakeStore{},
		TXRunner:  passRunner{},
		Event: serverdomain.EventMeta{
			Title: "Dominion University Convocation",
			Date:  "September 13, 2025",
			Time:  "10:00 AM",
			Venue: "Main Auditorium",
		},
		DefaultCountry: "NG",
	}
	gate := &service.Gate{Invites: invites}
	srv := &server.Server{
		Verify:      &verify.Handler{Gate: gate, GatePIN: gatePIN},
		Admin:       &admin.Handler{Issuer: issuer, Invites: invites},
		JWTSecret:   testSecret,
		AdminEmails: []string{staffEmail},
	}
	return srv.Engine()
}

func staffToken(t *testing.T, email string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func issueOne(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, out := doJSON(t, h, http.MethodPost, "/admin/invites", staffToken(t, staffEmail), map[string]any{
		"student": map[string]any{"matricNo": "DU/2020/011", "studentName": "Jane Smith"},
		"guests":  []map[string]any{{"guestName": "John Doe", "phone": "08012345678"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("issue: status %d body %s", rec.Code, rec.Body.String())
	}
	files, _ := out["files"].([]any)
	if len(files) != 1 {
		t.Fatalf("expected one file entry, got %v", out["files"])
	}
	entry := files[0].(map[string]any)
	token, _ := entry["token"].(string)
	if token == "" {
		t.Fatalf("no token in entry: %v", entry)
	}
	if entry["publicUrl"] == "" || entry["whatsappLink"] == "" {
		t.Fatalf("incomplete entry: %v", entry)
	}
	return token
}

func TestHealthRoute(t *testing.T) {
	h := newTestEngine(t)
	rec, out := doJSON(t, h, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK || out["ok"] != true {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminInvitesAuth(t *testing.T) {
	h := newTestEngine(t)
	body := map[string]any{
		"student": map[string]any{"matricNo": "DU/2020/011", "studentName": "Jane Smith"},
		"guests":  []map[string]any{{"guestName": "John Doe", "phone": "080"}},
	}

	rec, _ := doJSON(t, h, http.MethodPost, "/admin/invites", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/admin/invites", "not-a-jwt", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/admin/invites", staffToken(t, "intruder@du.edu"), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-allowlisted email: %d", rec.Code)
	}
}

func TestAdminInvitesValidation(t *testing.T) {
	h := newTestEngine(t)
	rec, out := doJSON(t, h, http.MethodPost, "/admin/invites", staffToken(t, staffEmail), map[string]any{
		"student": map[string]any{"studentName": "Jane Smith"},
		"guests":  []map[string]any{{"guestName": "John Doe", "phone": "080"}},
	})
	if rec.Code != http.StatusBadRequest || out["ok"] != false {
		t.Fatalf("missing matric: %d %s", rec.Code, rec.Body.String())
	}
}

func TestVerifyCheckFlow(t *testing.T) {
	h := newTestEngine(t)
	token := issueOne(t, h)

	rec, out := doJSON(t, h, http.MethodPost, "/verify/check", "", map[string]any{"token": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("check: %d %s", rec.Code, rec.Body.String())
	}
	if out["ok"] != true || out["status"] != "UNUSED" {
		t.Fatalf("check body: %v", out)
	}
	guest := out["guest"].(map[string]any)
	student := out["student"].(map[string]any)
	if guest["guestName"] != "John Doe" || student["matricNo"] != "DU/2020/011" || student["studentName"] != "Jane Smith" {
		t.Fatalf("check details: %v", out)
	}
	if out["usedAt"] != nil || out["usedBy"] != nil {
		t.Fatalf("fresh invite carries admission metadata: %v", out)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/verify/check", "", map[string]any{"token": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty token: %d", rec.Code)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/verify/check", "", map[string]any{"token": "nosuchtoken9"})
	if rec.Code != http.StatusNotFound || out["error"] != "Invalid token" {
		t.Fatalf("unknown token: %d %v", rec.Code, out)
	}

	// The check endpoint accepts the raw QR payload too.
	rec, out = doJSON(t, h, http.MethodPost, "/verify/check", "", map[string]any{"token": `{"t":"` + token + `"}`})
	if rec.Code != http.StatusOK || out["status"] != "UNUSED" {
		t.Fatalf("qr payload form: %d %v", rec.Code, out)
	}
}

func TestVerifyUseAsStaff(t *testing.T) {
	h := newTestEngine(t)
	token := issueOne(t, h)

	rec, _ := doJSON(t, h, http.MethodPost, "/verify/use", "", map[string]any{"token": token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated use: %d", rec.Code)
	}

	rec, out := doJSON(t, h, http.MethodPost, "/verify/use", staffToken(t, staffEmail), map[string]any{"token": token})
	if rec.Code != http.StatusOK || out["message"] != "Guest admitted" {
		t.Fatalf("use: %d %v", rec.Code, out)
	}
	guest := out["guest"].(map[string]any)
	if guest["status"] != "USED" || guest["usedBy"] != staffEmail || guest["usedAt"] == nil {
		t.Fatalf("admitted guest block: %v", guest)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/verify/use", staffToken(t, staffEmail), map[string]any{"token": token})
	if rec.Code != http.StatusConflict || out["error"] != "Already used" {
		t.Fatalf("second use: %d %v", rec.Code, out)
	}
	guest = out["guest"].(map[string]any)
	if guest["usedBy"] != staffEmail {
		t.Fatalf("conflict must report original admission: %v", guest)
	}
}

func TestVerifyUseWithPin(t *testing.T) {
	h := newTestEngine(t)
	token := issueOne(t, h)

	rec, _ := doJSON(t, h, http.MethodPost, "/verify/use-with-pin", "", map[string]any{"token": token})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing pin: %d", rec.Code)
	}

	rec, out := doJSON(t, h, http.MethodPost, "/verify/use-with-pin", "", map[string]any{"token": token, "pin": "0000"})
	if rec.Code != http.StatusForbidden || out["error"] != "Invalid PIN" {
		t.Fatalf("wrong pin: %d %v", rec.Code, out)
	}

	rec, out = doJSON(t, h, http.MethodPost, "/verify/use-with-pin", "", map[string]any{"token": token, "pin": gatePIN})
	if rec.Code != http.StatusOK {
		t.Fatalf("right pin: %d %v", rec.Code, out)
	}
	guest := out["guest"].(map[string]any)
	if guest["usedBy"] != "pin:gate" {
		t.Fatalf("pin admissions must not record the PIN: %v", guest)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/verify/use-with-pin", "", map[string]any{"token": "nosuchtoken9", "pin": gatePIN})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown token: %d", rec.Code)
	}
}

func TestUseWithPinUnconfigured(t *testing.T) {
	students := repository.NewMemoryStudentRepository()
	invites := repository.NewMemoryInviteRepository(students)
	srv := &server.Server{
		Verify: &verify.Handler{Gate: &service.Gate{Invites: invites}},
		Admin:  &admin.Handler{Invites: invites},
	}
	h := srv.Engine()

	rec, _ := doJSON(t, h, http.MethodPost, "/verify/use-with-pin", "", map[string]any{"token": "abcd2345wxyz", "pin": "0000"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unconfigured pin path must refuse: %d", rec.Code)
	}
}

func TestVerifyViewPage(t *testing.T) {
	h := newTestEngine(t)
	token := issueOne(t, h)

	req := httptest.NewRequest(http.MethodGet, "/verify/"+token, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("view: %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "John Doe") || !strings.Contains(page, "Admit") {
		t.Fatalf("view page missing details: %s", page)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("verify page must not be cached")
	}

	req = httptest.NewRequest(http.MethodGet, "/verify/"+token+"?mark=1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Admitted") {
		t.Fatalf("mark: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/verify/"+token, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "Already Used") {
		t.Fatalf("page after admission: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/verify/nosuchtoken9", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown token view: %d", rec.Code)
	}
}

func TestExportInvitesCSV(t *testing.T) {
	h := newTestEngine(t)
	token := issueOne(t, h)
	if rec, _ := doJSON(t, h, http.MethodPost, "/verify/use-with-pin", "", map[string]any{"token": token, "pin": gatePIN}); rec.Code != http.StatusOK {
		t.Fatalf("admit for export: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/invites.csv", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken(t, staffEmail))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("content type: %q", rec.Header().Get("Content-Type"))
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "token" || rows[0][5] != "status" {
		t.Fatalf("header: %v", rows[0])
	}
	if rows[1][0] != token || rows[1][5] != "USED" || rows[1][8] != "pin:gate" {
		t.Fatalf("row: %v", rows[1])
	}
}
