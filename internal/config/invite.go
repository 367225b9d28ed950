package config

// InviteConfig shapes the links sent to guests.  RSVPBaseURL is prefixed to
// the invite token as is, so it normally ends in "?token=".
type InviteConfig struct {
	RSVPBaseURL string
	Signature   string
}

// LoadInviteConfig reads RSVP_BASE_URL and INVITE_SIGNATURE.
func LoadInviteConfig() InviteConfig {
	return InviteConfig{
		RSVPBaseURL: envStr("RSVP_BASE_URL", "http://localhost:3000/?token="),
		Signature:   envStr("INVITE_SIGNATURE", ""),
	}
}
