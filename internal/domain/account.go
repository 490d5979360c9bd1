package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Phone is the unique account key: "+<digits>" for real numbers or
// "id_<n>" for desktop imports that expose no phone number.
type Phone string

const syntheticPhonePrefix = "id_"

type SessionKind string

const (
	SessionKindStandard SessionKind = "standard"
	SessionKindDesktop  SessionKind = "desktop"
)

type Account struct {
	Phone           Phone
	SessionRef      string
	SessionKind     SessionKind
	VerificationURL string
	Profile         Profile
	Authenticated   bool
	LastActive      time.Time
}

type Profile struct {
	DisplayName string
	Username    string
	UserID      int64
	Phone       string
}

func (p Profile) Label() string {
	name := p.DisplayName
	if name == "" {
		name = "unknown"
	}
	if p.Username == "" {
		return name
	}
	return fmt.Sprintf("%s (@%s)", name, p.Username)
}

func DisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func (a Account) Kind() SessionKind {
	if a.SessionKind == "" {
		return SessionKindStandard
	}
	return a.SessionKind
}

// NormalizePhone strips whitespace and prefixes "+" when missing.
func NormalizePhone(raw string) (Phone, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if cleaned == "" || cleaned == "+" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	if strings.HasPrefix(cleaned, syntheticPhonePrefix) {
		return Phone(cleaned), nil
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return Phone(cleaned), nil
}

func SyntheticPhone(userID int64) Phone {
	return Phone(fmt.Sprintf("%s%d", syntheticPhonePrefix, userID))
}

func PhoneFromProfile(p Profile) Phone {
	digits := strings.TrimPrefix(strings.TrimSpace(p.Phone), "+")
	if digits == "" {
		return SyntheticPhone(p.UserID)
	}
	return Phone("+" + digits)
}

// SessionRefFor derives the session artifact name for a phone-keyed account.
func SessionRefFor(phone Phone) string {
	return sanitizeRef(string(phone)) + ".session"
}

// DesktopSessionRef derives the session artifact name for an imported desktop account.
func DesktopSessionRef(externalID string) string {
	return "tdesktop_" + sanitizeRef(externalID) + ".session"
}

func sanitizeRef(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, raw)
}
