package service

import "strings"

var countryCodes = map[string]string{
	"NG": "234",
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToE164 normalizes a raw phone number for WhatsApp links. Light on
// purpose: local numbers get the default country prefix, anything that
// already carries a country code passes through.
func ToE164(raw, country string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	hadPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")
	digits := digitsOnly(raw)
	if digits == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(digits, "00"):
		return "+" + digits[2:]
	case hadPlus:
		return "+" + digits
	}
	cc, ok := countryCodes[country]
	if !ok {
		return "+" + digits
	}
	switch {
	case strings.HasPrefix(digits, cc):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+" + cc + digits[1:]
	}
	return "+" + cc + digits
}

// WhatsAppLink builds a wa.me link; wa.me wants digits with no plus.
func WhatsAppLink(e164, text string) string {
	num := digitsOnly(e164)
	if num == "" {
		return ""
	}
	return "https://wa.me/" + num + "?text=" + urlEncode(text)
}
