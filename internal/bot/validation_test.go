package bot

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid name", "Maria", "Maria", false},
		{"capitalizes first letter", "maria", "Maria", false},
		{"with spaces trimmed", "  Anna  ", "Anna", false},
		{"double name", "Anna Maria", "Anna Maria", false},
		{"hyphenated", "Jean-Luc", "Jean-Luc", false},
		{"abbreviated middle", "John W. Smith", "John W. Smith", false},
		{"non-latin letters", "Мария", "Мария", false},
		{"too short", "A", "", true},
		{"empty", "", "", true},
		{"only spaces", "   ", "", true},
		{"contains digits", "Maria2", "", true},
		{"contains symbols", "Maria!", "", true},
		{"too long", strings.Repeat("a", 51), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("validateName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid email", "user@example.com", "user@example.com", false},
		{"lowercased", "User@Example.COM", "user@example.com", false},
		{"with spaces trimmed", "  user@example.com  ", "user@example.com", false},
		{"subdomain", "a@mail.example.org", "a@mail.example.org", false},
		{"plus address", "user+tag@example.com", "user+tag@example.com", false},
		{"empty", "", "", true},
		{"no at sign", "userexample.com", "", true},
		{"no domain dot", "user@example", "", true},
		{"two at signs", "user@@example.com", "", true},
		{"space inside", "us er@example.com", "", true},
		{"nothing before at", "@example.com", "", true},
		{"nothing after dot", "user@example.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateEmail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("validateEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain digits", "4915112345678", "4915112345678", false},
		{"with plus", "+4915112345678", "+4915112345678", false},
		{"strips formatting", "+49 (151) 123-456-78", "+4915112345678", false},
		{"minimum length", "1234567", "1234567", false},
		{"too short", "12345", "", true},
		{"too long", "+123456789012345678", "", true},
		{"letters only", "call me", "", true},
		{"empty", "", "", true},
		{"plus padding only", "++++1234", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validatePhone(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePhone(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("validatePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid text", "Recurring headaches in the morning", false},
		{"short text", "no", false},
		{"trims spaces", "  some text  ", false},
		{"empty", "", true},
		{"only spaces", "   ", true},
		{"too long", strings.Repeat("x", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateDescription(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDescription(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError{Field: "test", Message: "test message"}
	if err.Error() != "test message" {
		t.Errorf("ValidationError.Error() = %q, want %q", err.Error(), "test message")
	}
}
