package repository

import (
	"os"
	"path/filepath"
	"testing"

	client "github.com/du-events/convite/internal/client/domain"
)

func TestProfileSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.toml")
	repo := &TOMLProfileRepository{FilePath: path}

	err := repo.Set("main-gate", client.GateProfile{
		BaseURL: "https://invites.du.edu",
		PIN:     "4821",
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := repo.Get("main-gate")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "main-gate" || got.BaseURL != "https://invites.du.edu" || got.PIN != "4821" {
		t.Fatalf("round trip: %+v", got)
	}

	if _, err := repo.Get("side-gate"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestProfileSurvivesNewRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.toml")
	first := &TOMLProfileRepository{FilePath: path}
	if err := first.Set("main-gate", client.GateProfile{BaseURL: "http://localhost:8080", PIN: "1111"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second := &TOMLProfileRepository{FilePath: path}
	got, err := second.Get("main-gate")
	if err != nil {
		t.Fatalf("Get from fresh repository: %v", err)
	}
	if got.PIN != "1111" {
		t.Fatalf("profile = %+v", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("profile file perm = %v, want 0600", info.Mode().Perm())
	}
}

func TestProfileDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gates.toml")
	repo := &TOMLProfileRepository{FilePath: path}
	if err := repo.Set("main-gate", client.GateProfile{BaseURL: "http://localhost:8080", PIN: "1111"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Delete("main-gate"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get("main-gate"); err == nil {
		t.Fatal("expected error after delete")
	}
}
