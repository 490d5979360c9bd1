package domain

import "strings"

// NormalizePhones normalizes, drops blanks and duplicates, and keeps first-seen order.
func NormalizePhones(raw []string) ([]Phone, error) {
	phones := make([]Phone, 0, len(raw))
	seen := make(map[Phone]struct{}, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		phone, err := NormalizePhone(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[phone]; ok {
			continue
		}
		seen[phone] = struct{}{}
		phones = append(phones, phone)
	}
	return phones, nil
}

// NormalizeTargets trims targets and drops blanks. Duplicates are kept since
// sending twice to one target is a valid request.
func NormalizeTargets(raw []string) []string {
	targets := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		targets = append(targets, trimmed)
	}
	return targets
}

// SplitList splits a comma or newline separated flag value.
func SplitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
}

// StripHandle removes a leading "@" from a username target.
func StripHandle(target string) string {
	return strings.TrimPrefix(strings.TrimSpace(target), "@")
}
