package repository

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	client "github.com/du-events/convite/internal/client/domain"
)

const (
	permRepository = 0600
)

type TOMLProfileRepository struct {
	FilePath string

	data       schema
	modifiedAt time.Time
}

func (r *TOMLProfileRepository) Get(id string) (client.GateProfile, error) {
	modified, err := r.fileModified()
	profile := client.GateProfile{}
	if err != nil {
		return profile, err
	}
	if modified {
		if err := r.load(); err != nil {
			return profile, err
		}
	}
	repr, ok := r.data.Gates[id]
	if !ok {
		return profile, fmt.Errorf("gate profile does not exist")
	}
	profile = repr.toDomain(id)
	return profile, nil
}

func (r *TOMLProfileRepository) Set(id string, p client.GateProfile) error {
	modified, err := r.fileModified()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if modified {
		if err := r.load(); err != nil {
			return err
		}
	}
	if r.data.Gates == nil {
		r.data.Gates = make(map[string]*gateProfile)
	}
	if _, ok := r.data.Gates[id]; !ok {
		r.data.Gates[id] = &gateProfile{}
	}
	r.data.Gates[id].fromDomain(p)
	if err := r.save(); err != nil {
		return err
	}
	return nil
}

func (r *TOMLProfileRepository) Delete(id string) error {
	_, ok := r.data.Gates[id]
	if !ok {
		return fmt.Errorf("gate profile does not exist")
	}
	delete(r.data.Gates, id)
	if err := r.save(); err != nil {
		return err
	}
	return nil
}

type gateProfile struct {
	BaseURL string `toml:"url"`
	PIN     string `toml:"pin"`
}

func (p *gateProfile) toDomain(id string) client.GateProfile {
	return client.GateProfile{
		ID:      id,
		BaseURL: p.BaseURL,
		PIN:     p.PIN,
	}
}

func (p *gateProfile) fromDomain(profile client.GateProfile) {
	p.BaseURL = profile.BaseURL
	p.PIN = profile.PIN
}

type schema struct {
	Gates map[string]*gateProfile `toml:"gates"`
}

func (r *TOMLProfileRepository) fileModified() (bool, error) {
	info, err := os.Stat(r.FilePath)
	if err != nil {
		return false, fmt.Errorf("failed to read file timestamp: %w", err)
	}
	modTime := info.ModTime()
	mod := !r.modifiedAt.Equal(modTime)
	if mod {
		r.modifiedAt = modTime
	}
	return mod, nil
}

func (r *TOMLProfileRepository) load() error {
	_, err := toml.DecodeFile(r.FilePath, &r.data)
	if err != nil {
		return fmt.Errorf("failed to load repository: %w", err)
	}
	return nil
}

func (r *TOMLProfileRepository) save() error {
	file, err := os.OpenFile(r.FilePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, permRepository)
	if err != nil {
		return fmt.Errorf("failed to save repository: %w", err)
	}
	defer file.Close()
	enc := toml.NewEncoder(file)
	enc.Indent = ""
	return enc.Encode(r.data)
}
