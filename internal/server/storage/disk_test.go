package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskPut(t *testing.T) {
	dir := t.TempDir()
	d := &Disk{Dir: filepath.Join(dir, "artifacts"), BaseURL: "http://localhost:8080/"}

	url, err := d.Put(context.Background(), "Invite_DU_2020_011_John_Doe.pdf", []byte("%PDF stub"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/files/Invite_DU_2020_011_John_Doe.pdf" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "artifacts", "Invite_DU_2020_011_John_Doe.pdf"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "%PDF stub" {
		t.Fatalf("content = %q", data)
	}
}

func TestDiskPutStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	d := &Disk{Dir: dir, BaseURL: "http://localhost:8080"}

	if _, err := d.Put(context.Background(), "../escape.pdf", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.pdf")); err != nil {
		t.Fatalf("file not written inside dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.pdf")); err == nil {
		t.Fatal("file escaped the artifact dir")
	}
}

func TestDiskPutCancelledContext(t *testing.T) {
	d := &Disk{Dir: t.TempDir(), BaseURL: "http://localhost:8080"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Put(ctx, "x.pdf", []byte("x")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
