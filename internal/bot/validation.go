package bot

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateName checks a person name
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return "", ValidationError{Field: "name", Message: "Name must be at least 2 characters long"}
	}
	if len(name) > 50 {
		return "", ValidationError{Field: "name", Message: "Name is too long (50 characters max)"}
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && r != '-' && r != ' ' && r != '.' {
			return "", ValidationError{Field: "name", Message: "Name may contain only letters"}
		}
	}

	runes := []rune(name)
	if len(runes) > 0 && unicode.IsLetter(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
	}

	return string(runes), nil
}

// validateEmail checks an email address
func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ValidationError{Field: "email", Message: "Email cannot be empty"}
	}
	if len(email) > 254 {
		return "", ValidationError{Field: "email", Message: "Email is too long"}
	}
	if !emailRegex.MatchString(email) {
		return "", ValidationError{Field: "email", Message: "That does not look like a valid email, try again (e.g. name@example.com)"}
	}
	return email, nil
}

// validatePhone checks a phone number
func validatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '+' {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) < 7 {
		return "", ValidationError{Field: "phone", Message: "Phone number is too short"}
	}
	if len(cleaned) > 15 {
		return "", ValidationError{Field: "phone", Message: "Phone number is too long"}
	}

	digitCount := 0
	for _, r := range cleaned {
		if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if digitCount < 7 {
		return "", ValidationError{Field: "phone", Message: "Phone number must contain at least 7 digits"}
	}

	return cleaned, nil
}

// validateDescription checks free-form request text
func validateDescription(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ValidationError{Field: "description", Message: "Description cannot be empty"}
	}
	if len(text) > 500 {
		return "", ValidationError{Field: "description", Message: "Description is too long (500 characters max)"}
	}
	return text, nil
}
