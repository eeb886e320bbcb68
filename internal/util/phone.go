package util

import (
	"regexp"
	"strings"

	"github.com/jmehdipour/unit-notifier/internal/model"
)

var (
	nonPhoneChars = regexp.MustCompile(`[^\d\+]+`)
	e164          = regexp.MustCompile(`^\+\d{1,15}$`)
)

// NormalizePhone tries to normalize user input into E.164 format. Ten-digit
// national numbers are assumed to be North American.
func NormalizePhone(raw string) string {
	s := nonPhoneChars.ReplaceAllString(strings.TrimSpace(raw), "")

	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	} else if !strings.HasPrefix(s, "+") && len(s) == 10 {
		s = "+1" + s
	} else if strings.HasPrefix(s, "1") && len(s) == 11 {
		s = "+" + s
	}

	return s
}

// ValidE164 reports whether s is "+" followed by 1-15 digits.
func ValidE164(s string) bool {
	return e164.MatchString(s)
}

// SplitPhones splits a comma separated list, trimming blanks.
func SplitPhones(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilterE164 drops anything that is not a valid E.164 number and returns the
// rejected values separately.
func FilterE164(phones []model.Phone) (valid []model.Phone, rejected []model.Phone) {
	valid = make([]model.Phone, 0, len(phones))
	for _, p := range phones {
		if ValidE164(string(p)) {
			valid = append(valid, p)
			continue
		}
		rejected = append(rejected, p)
	}
	return valid, rejected
}
