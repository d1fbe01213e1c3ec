// Package contact validates the contact details collected before a call is scheduled.
package contact

import (
	"errors"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is the region assumed for phone numbers without a country code.
const DefaultRegion = "US"

// Field identifies one of the collected contact fields.
type Field string

const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
)

// Fields lists the collected fields in prompt order.
var Fields = []Field{FieldName, FieldEmail, FieldPhone}

// Info is the contact record of a session.
// Email and Phone are only ever set to values that passed validation.
type Info struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Get returns the value of a single field.
func (i Info) Get(field Field) string {
	switch field {
	case FieldName:
		return i.Name
	case FieldEmail:
		return i.Email
	case FieldPhone:
		return i.Phone
	default:
		return ""
	}
}

// With returns a copy of i with one field replaced.
func (i Info) With(field Field, value string) Info {
	switch field {
	case FieldName:
		i.Name = value
	case FieldEmail:
		i.Email = value
	case FieldPhone:
		i.Phone = value
	}
	return i
}

var (
	ErrEmptyName    = errors.New("name must not be empty")
	ErrInvalidEmail = errors.New("invalid email format")
	ErrInvalidPhone = errors.New("invalid phone number format")
	ErrUnknownField = errors.New("unknown contact field")
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// ValidateEmail reports whether s looks like local@domain.tld.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePhone reports whether s parses to a number that is valid for its region.
// defaultRegion is used when s carries no country code. Parse errors return false.
func ValidatePhone(s, defaultRegion string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	num, err := phonenumbers.Parse(s, strings.ToUpper(defaultRegion))
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// Validate checks a single field value and returns the rejection reason, if any.
func Validate(field Field, value, defaultRegion string) error {
	switch field {
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return ErrEmptyName
		}
		return nil
	case FieldEmail:
		if !ValidateEmail(value) {
			return ErrInvalidEmail
		}
		return nil
	case FieldPhone:
		if !ValidatePhone(value, defaultRegion) {
			return ErrInvalidPhone
		}
		return nil
	default:
		return ErrUnknownField
	}
}

// Mask hides most of a contact value for logging.
func Mask(value string) string {
	r := []rune(value)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}
