package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/du-events/convite/internal/server/domain"
)

type Config struct {
	Addr           string   `toml:"addr"`
	PublicBaseURL  string   `toml:"public_base_url"`
	DBPath         string   `toml:"db_path"`
	ArtifactDir    string   `toml:"artifact_dir"`
	GatePin        string   `toml:"gate_pin"`
	JWTSecret      string   `toml:"jwt_secret"`
	AdminEmails    []string `toml:"admin_emails"`
	DefaultCountry string   `toml:"default_country"`

	// UploadTimeout bounds render+store per guest, in seconds.
	UploadTimeoutSeconds int `toml:"upload_timeout_seconds"`

	Event eventConfig `toml:"event"`
}

type eventConfig struct {
	Title string `toml:"title"`
	Date  string `toml:"date"`
	Time  string `toml:"time"`
	Venue string `toml:"venue"`
	Notes string `toml:"notes"`
}

func (c Config) EventMeta() domain.EventMeta {
	return domain.EventMeta{
		Title: c.Event.Title,
		Date:  c.Event.Date,
		Time:  c.Event.Time,
		Venue: c.Event.Venue,
		Notes: c.Event.Notes,
	}
}

func (c Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// LoadConfig reads the TOML file and applies environment overrides so
// secrets stay out of the config file.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		Addr:                 ":8080",
		PublicBaseURL:        "http://localhost:8080",
		DBPath:               "convite.db",
		ArtifactDir:          "artifacts",
		DefaultCountry:       "NG",
		UploadTimeoutSeconds: 30,
		Event: eventConfig{
			Title: "Dominion University Convocation",
		},
	}
	var loadErr error
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			loadErr = fmt.Errorf("failed to load config: %w", err)
		}
	}
	// Env overrides apply even when the file could not be read; callers
	// that tolerate a missing file still need the secrets.
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("GATE_PIN"); v != "" {
		cfg.GatePin = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		cfg.AdminEmails = cfg.AdminEmails[:0]
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, e)
			}
		}
	}
	return cfg, loadErr
}
