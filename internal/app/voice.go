package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// VoiceService signs Vivox access tokens so seated players can talk in a
// per-room channel.
type VoiceService struct {
	secret string
	issuer string
	domain string
	ttl    time.Duration
}

const (
	VoiceActionLogin = "login"
	VoiceActionJoin  = "join"
)

func NewVoiceService(secret, issuer, domain string, ttl time.Duration) *VoiceService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &VoiceService{secret: secret, issuer: issuer, domain: domain, ttl: ttl}
}

// Configured reports whether tokens can be signed.
func (s *VoiceService) Configured() bool {
	return s != nil && s.secret != "" && s.issuer != "" && s.domain != ""
}

// Token signs a login token for user, or a join token for the channel of
// room code.
func (s *VoiceService) Token(user, action, code string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("voice config is incomplete")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}

	from := s.userURI(user)
	var to string
	switch action {
	case VoiceActionLogin:
		to = from
	case VoiceActionJoin:
		if !ValidRoomCode(code) {
			return "", fmt.Errorf("invalid room code %q", code)
		}
		to = s.channelURI(code)
	default:
		return "", fmt.Errorf("unsupported voice action: %s", action)
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": user,
		"exp": time.Now().Add(s.ttl).Unix(),
		"vxa": action,
		"vxi": uuid.NewString(),
		"f":   from,
		"t":   to,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
}

func (s *VoiceService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VoiceService) channelURI(code string) string {
	return "sip:confctl-g-marrakech-" + code + "@" + s.domain
}
