package verification

import (
	"regexp"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
)

// Patterns are tried in order; the first pattern with a match wins.
var (
	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:code|验证码)[:\s]*(\d{5,6})`),
		regexp.MustCompile(`(\d{5,6})`),
	}
	passwordPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:2fa|password|密码)[:\s]*([^\s<]+)`),
	}
)

// ExtractCode returns the login code found in body, preferring a labeled
// code over a bare digit run.
func ExtractCode(body string) (string, error) {
	if match, ok := firstMatch(codePatterns, body); ok {
		return match, nil
	}
	return "", domain.ErrCodeNotFound
}

func ExtractPassword(body string) (string, error) {
	if match, ok := firstMatch(passwordPatterns, body); ok {
		return match, nil
	}
	return "", domain.ErrPasswordNotFound
}

func firstMatch(patterns []*regexp.Regexp, body string) (string, bool) {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(body); m != nil {
			return m[1], true
		}
	}
	return "", false
}
