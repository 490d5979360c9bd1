package domain

import "strings"

// AccountLine is one "<phone>|<verificationUrl>" config entry.
type AccountLine struct {
	Phone           Phone
	VerificationURL string
}

func ParseAccountLine(line string) (AccountLine, error) {
	raw, url, _ := strings.Cut(strings.TrimSpace(line), "|")
	phone, err := NormalizePhone(raw)
	if err != nil {
		return AccountLine{}, err
	}
	return AccountLine{Phone: phone, VerificationURL: strings.TrimSpace(url)}, nil
}
