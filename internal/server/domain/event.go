package domain

// EventMeta is static configuration stamped onto rendered invites and
// WhatsApp captions. It is not a persisted entity.
type EventMeta struct {
	Title string
	Date  string
	Time  string
	Venue string
	Notes string
}
