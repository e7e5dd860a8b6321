package form

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/germanmitharsh/formgate/internal/models"
)

// CourseLevels is the canonical set of course-level codes accepted by the
// enroll form.
var CourseLevels = []string{"a1.1", "a1.2", "a2.1", "a2.2", "b1.1", "b1.2", "b2.1", "b2.2", "unsure"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	nameMinLen     = 2
	nameMaxLen     = 120
	emailMaxLen    = 255
	messageMinLen  = 10
	messageMaxLen  = 5000
	phoneMinDigits = 10
	phoneMaxDigits = 15
)

// Validate checks the normalized fields against the rules for the given form
// type. It is a pure check except for one write-back: a tolerantly matched
// course level is replaced by its canonical code. A populated honeypot
// returns ErrSpam; every other failure is a *FieldError wrapping
// ErrValidation.
func Validate(f *Fields, formType models.FormType) error {
	if f.Honeypot != "" {
		return ErrSpam
	}

	if f.Name == "" {
		return fieldErr("name", "Missing required field: name")
	}
	if n := utf8.RuneCountInString(f.Name); n < nameMinLen || n > nameMaxLen {
		return fieldErr("name", "Name must be between 2 and 120 characters")
	}
	if !validName(f.Name) {
		return fieldErr("name", "Name contains invalid characters")
	}

	if f.Email == "" || utf8.RuneCountInString(f.Email) > emailMaxLen || !emailPattern.MatchString(f.Email) {
		return fieldErr("email", "Invalid or missing email")
	}

	switch formType {
	case models.FormEnroll:
		if !validPhone(f.Phone) {
			return fieldErr("phone", "Invalid or missing phone")
		}
	default:
		if f.Phone != "" && !validPhone(f.Phone) {
			return fieldErr("phone", "Invalid phone number")
		}
	}

	if formType == models.FormEnroll && f.Level == "" {
		return fieldErr("level", "Missing required field: level")
	}

	// A missing message is reported before the level is resolved.
	if f.Message == "" {
		return fieldErr("message", "Missing required field: message")
	}

	if formType == models.FormEnroll {
		matched, ok := matchLevel(f.Level)
		if !ok {
			return fieldErr("level", "Invalid course level")
		}
		f.Level = matched
	}

	if n := utf8.RuneCountInString(f.Message); n < messageMinLen || n > messageMaxLen {
		return fieldErr("message", "Message must be between 10 and 5000 characters")
	}

	return nil
}

// validName accepts Unicode letters plus the joining characters that occur in
// real names. Kept deliberately wide so non-Latin names pass.
func validName(name string) bool {
	for _, r := range name {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' || r == '.' {
			continue
		}
		return false
	}
	return true
}

// validPhone strips everything that is not a digit and checks the count.
// "+49 151 1234567" counts 12 digits.
func validPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= phoneMinDigits && digits <= phoneMaxDigits
}

// matchLevel resolves a submitted level against the canonical set: exact
// match first, then substring containment ("I think a1.1" resolves to
// "a1.1").
func matchLevel(level string) (string, bool) {
	for _, v := range CourseLevels {
		if level == v {
			return v, true
		}
	}
	for _, v := range CourseLevels {
		if strings.Contains(level, v) {
			return v, true
		}
	}
	return "", false
}
