package booking

import (
	"regexp"
	"sort"
	"strings"
)

// ClientDetails is what the visitor enters before submission.
type ClientDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes,omitempty"`
}

// FieldErrors maps a field name to a message the form can render inline.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "booking: invalid details: " + strings.Join(fields, ", ")
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPhoneDigits = 10

// Validate checks the details field by field. A nil return means valid.
// Phone is required here even though the provider treats it as optional;
// the front desk needs a callback number.
func (d ClientDetails) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.FirstName) == "" {
		errs["firstName"] = "first name is required"
	}
	if strings.TrimSpace(d.LastName) == "" {
		errs["lastName"] = "last name is required"
	}
	if !emailPattern.MatchString(strings.TrimSpace(d.Email)) {
		errs["email"] = "a valid email address is required"
	}
	if countDigits(d.Phone) < minPhoneDigits {
		errs["phone"] = "a phone number with at least 10 digits is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
