// Package invite builds the RSVP and WhatsApp links an admin sends to
// guests.
package invite

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/model"
)

// Links are the shareable URLs of one guest.  WhatsApp links need a phone
// number; the reminder is only offered while the guest has not confirmed.
type Links struct {
	RSVP     string `json:"rsvp_url"`
	WhatsApp string `json:"whatsapp_url,omitempty"`
	Reminder string `json:"reminder_url,omitempty"`
}

type Builder struct {
	baseURL   string
	signature string
}

func NewBuilder(cfg config.InviteConfig) Builder {
	return Builder{baseURL: cfg.RSVPBaseURL, signature: cfg.Signature}
}

// For returns the links of g.  A guest without an invite token has none.
func (b Builder) For(g model.Guest) Links {
	if g.InviteToken == "" {
		return Links{}
	}
	out := Links{RSVP: b.baseURL + url.QueryEscape(g.InviteToken)}
	phone := ""
	if g.Phone != nil {
		phone = digits(*g.Phone)
	}
	if phone == "" {
		return out
	}
	name := g.DisplayName("")

	msg := fmt.Sprintf("Hola %s,\n\nTe compartimos los detalles de nuestra boda. Por favor confirma tu asistencia aquí: %s", name, out.RSVP)
	if b.signature != "" {
		msg += "\n\nCon cariño,\n" + b.signature
	}
	out.WhatsApp = whatsApp(phone, msg)

	if g.Status() != model.StatusConfirmed {
		out.Reminder = whatsApp(phone, fmt.Sprintf("Hola %s,\n\nSolo como recordatorio. ¿Podrías confirmar tu asistencia cuando tengas un momento?\n\nConfirma aquí: %s\n\n¡Gracias!", name, out.RSVP))
	}
	return out
}

func whatsApp(phone, text string) string {
	return "https://wa.me/" + phone + "?" + url.Values{"text": {text}}.Encode()
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
