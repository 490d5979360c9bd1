package domain

import (
	"errors"
	"strings"
)

type Health string

const (
	HealthUnknown    Health = "unknown"
	HealthOnline     Health = "online"
	HealthRestricted Health = "restricted"
	HealthFrozen     Health = "frozen"
	HealthOffline    Health = "offline"
)

type AccountHealth struct {
	Phone  Phone
	Health Health
	Detail string
}

// HealthFromError classifies a failed health call on a connected account.
func HealthFromError(err error) Health {
	if err == nil {
		return HealthOnline
	}
	var flood *FloodWaitError
	if errors.As(err, &flood) {
		return HealthRestricted
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "banned") || strings.Contains(msg, "deactivated") {
		return HealthFrozen
	}
	return HealthRestricted
}

// HealthFromConnectError classifies a failure to obtain a client at all.
func HealthFromConnectError(err error) Health {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "banned"), strings.Contains(msg, "deactivated"):
		return HealthFrozen
	case strings.Contains(msg, "auth"):
		return HealthOffline
	default:
		return HealthRestricted
	}
}
