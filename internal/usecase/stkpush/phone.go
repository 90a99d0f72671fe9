package stkpush

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
)

var msisdnPattern = regexp.MustCompile(`^2547\d{8}$`)

// NormalizeMSISDN turns the accepted local spellings of a Kenyan mobile
// number into 2547XXXXXXXX.
func NormalizeMSISDN(raw string) (string, error) {
	n := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, raw)

	switch {
	case n == "":
		return "", domain.NewInvalidInput("phoneNumber", "is required")
	case strings.HasPrefix(n, "+254"):
		n = n[1:]
	case strings.HasPrefix(n, "254"):
	case strings.HasPrefix(n, "0"):
		n = "254" + n[1:]
	case strings.HasPrefix(n, "7"):
		n = "254" + n
	default:
		return "", domain.NewInvalidInput("phoneNumber", "use 07XXXXXXXX or 2547XXXXXXXX")
	}

	if !msisdnPattern.MatchString(n) {
		return "", domain.NewInvalidInput("phoneNumber", "use 07XXXXXXXX or 2547XXXXXXXX")
	}
	return n, nil
}
