package domain

// GateProfile points the gate console at one deployment: where the
// verification API lives and which shared PIN admits guests there.
type GateProfile struct {
	ID      string
	BaseURL string
	PIN     string
}

type ProfileRepository interface {
	Get(id string) (GateProfile, error)
	Set(id string, p GateProfile) error
	Delete(id string) error
}
