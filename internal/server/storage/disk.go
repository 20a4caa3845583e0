package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const permArtifact = 0644

// Disk stores rendered invites on the local filesystem and hands back
// URLs under the server's public /files prefix. It stands in for the
// hosted upload target the service would use in production.
type Disk struct {
	Dir     string
	BaseURL string
}

func (d *Disk) Put(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}
	name := filepath.Base(filename)
	if err := os.WriteFile(filepath.Join(d.Dir, name), data, permArtifact); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return strings.TrimRight(d.BaseURL, "/") + "/files/" + url.PathEscape(name), nil
}
