package core

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone = errors.New("invalid phone number")

	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	mobileRegex     = regexp.MustCompile(`^3[0-9]{9}$`)
)

// NormalizePhone returns the E.164 form (+<countryCode>3XXXXXXXXX) of a mobile number written as
// 03XXXXXXXXX, 3XXXXXXXXX, +<cc>3XXXXXXXXX or 00<cc>3XXXXXXXXX. Separators are ignored.
func NormalizePhone(raw, countryCode string) (string, error) {
	p := phoneSeparators.Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(p, "+"+countryCode):
		p = p[len(countryCode)+1:]
	case strings.HasPrefix(p, "00"+countryCode):
		p = p[len(countryCode)+2:]
	case strings.HasPrefix(p, "0"):
		p = p[1:]
	}
	if !mobileRegex.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return "+" + countryCode + p, nil
}
