package service

import (
	"fmt"
	"net/url"

	server "github.com/du-events/convite/internal/server/domain"
)

// BuildCaption is the WhatsApp message sent alongside an invite link.
// Event notes, when configured, become an extra bullet.
func BuildCaption(guestName, link string, meta server.EventMeta) string {
	notes := ""
	if meta.Notes != "" {
		notes = "\n• " + meta.Notes
	}
	return fmt.Sprintf(`Hello %s,

You are invited to %s.
Date: %s • Time: %s
Venue: %s

Please download your QR invite PDF and bring it to the hall:
%s

NOTES
• Arrive 45 minutes early with a valid ID
• This pass is single-entry and non-transferable
• Keep your QR code private%s

Thank you.`, guestName, meta.Title, meta.Date, meta.Time, meta.Venue, link, notes)
}

func urlEncode(s string) string {
	return url.QueryEscape(s)
}
