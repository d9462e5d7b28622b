// Package validate normalizes and checks customer contact fields.
//
// Every validator returns the normalized value on success, or an
// *apperrors.ValidationError whose Err identifies the field kind.
package validate

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/solutiontech/gic/pkg/apperrors"
)

// DefaultRegion is used when no phone region is configured.
const DefaultRegion = "CL"

var (
	namePattern  = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑüÜ\s]+$`)
	domainLabel  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	topLevel     = regexp.MustCompile(`^[A-Za-z]{2,63}$`)
	titleCaser   = cases.Title(language.Spanish)
	taxIDCleaner = strings.NewReplacer(".", "", "-", "")
)

// Name trims s and accepts letters (including Spanish accented letters) and
// spaces. The result is title-cased.
func Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.Invalid("name", apperrors.ErrInvalidName, "name must not be empty")
	}
	if utf8.RuneCountInString(s) < 2 {
		return "", apperrors.Invalid("name", apperrors.ErrInvalidName, "name must have at least 2 characters")
	}
	if !namePattern.MatchString(s) {
		return "", apperrors.Invalid("name", apperrors.ErrInvalidName, "name may only contain letters and spaces")
	}
	return titleCaser.String(s), nil
}

// Email checks the syntax of an address (no deliverability lookup) and
// returns it with the domain lower-cased. Email(Email(x)) == Email(x).
func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.Invalid("email", apperrors.ErrInvalidEmail, "email must not be empty")
	}

	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return "", apperrors.Invalid("email", apperrors.ErrInvalidEmail, "invalid email %q", s)
	}

	at := strings.LastIndexByte(s, '@')
	local, domain := s[:at], s[at+1:]
	if len(local) == 0 || len(local) > 64 {
		return "", apperrors.Invalid("email", apperrors.ErrInvalidEmail, "invalid email %q: bad local part", s)
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 || len(domain) > 253 {
		return "", apperrors.Invalid("email", apperrors.ErrInvalidEmail, "invalid email %q: bad domain", s)
	}
	for _, label := range labels {
		if !domainLabel.MatchString(label) {
			return "", apperrors.Invalid("email", apperrors.ErrInvalidEmail, "invalid email %q: bad domain", s)
		}
	}
	if !topLevel.MatchString(labels[len(labels)-1]) {
		return "", apperrors.Invalid("email", apperrors.ErrInvalidEmail, "invalid email %q: bad top-level domain", s)
	}

	return local + "@" + strings.ToLower(domain), nil
}

// Phone parses s for region and returns it in international format.
func Phone(s, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(strings.TrimSpace(s), strings.ToUpper(region))
	if err != nil {
		return "", apperrors.Invalid("phone", apperrors.ErrInvalidPhone, "could not parse phone %q: %v", s, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", apperrors.Invalid("phone", apperrors.ErrInvalidPhone, "invalid phone %q for region %s", s, region)
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), nil
}

// Address trims s and requires at least 5 characters.
func Address(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.Invalid("address", apperrors.ErrInvalidAddress, "address must not be empty")
	}
	if utf8.RuneCountInString(s) < 5 {
		return "", apperrors.Invalid("address", apperrors.ErrInvalidAddress, "address must have at least 5 characters")
	}
	return s, nil
}

// TaxID verifies a Chilean RUT with its modulo-11 check digit and returns it
// formatted as 76.124.890-1.
func TaxID(s string) (string, error) {
	clean := strings.ToUpper(taxIDCleaner.Replace(strings.TrimSpace(s)))
	if len(clean) < 2 {
		return "", apperrors.Invalid("tax_id", apperrors.ErrInvalidTaxID, "tax id %q is too short", s)
	}

	body, dv := clean[:len(clean)-1], clean[len(clean)-1:]
	for _, r := range body {
		if r < '0' || r > '9' {
			return "", apperrors.Invalid("tax_id", apperrors.ErrInvalidTaxID, "invalid tax id %q", s)
		}
	}

	if CheckDigit(body) != dv {
		return "", apperrors.Invalid("tax_id", apperrors.ErrInvalidTaxID, "wrong check digit for tax id %q", s)
	}

	return groupThousands(strings.TrimLeft(body, "0")) + "-" + dv, nil
}

// CheckDigit computes the modulo-11 verifier for a string of digits.
// Multipliers 2..7 cycle over the digits from right to left.
func CheckDigit(body string) string {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		if mul < 7 {
			mul++
		} else {
			mul = 2
		}
	}

	switch dv := 11 - sum%11; dv {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(dv)
	}
}

// Rate requires 0 <= r <= 1.
func Rate(field string, r float64) (float64, error) {
	if r < 0 || r > 1 {
		return 0, apperrors.Invalid(field, apperrors.ErrInvalidRate, "%s must be between 0 and 1, got %v", field, r)
	}
	return r, nil
}

func groupThousands(digits string) string {
	if digits == "" {
		return "0"
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
