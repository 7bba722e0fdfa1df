package inventory

import (
	"fmt"
	"strings"
)

// MinFieldLen is the shortest value accepted for any record field.
const MinFieldLen = 2

// Server is one physical asset in the inventory.
type Server struct {
	ProductName  string `json:"product_name" csv:"Product Name"`
	SerialNumber string `json:"serial_number" csv:"Serial Number"`
	RackLocation string `json:"rack_location" csv:"Rack Location"`
	Username     string `json:"username" csv:"Username"`
}

// Key returns the canonical comparison key for the serial number.
func (s Server) Key() string {
	return canonical(s.SerialNumber)
}

// Normalize trims surrounding whitespace from every field.
func (s Server) Normalize() Server {
	return Server{
		ProductName:  strings.TrimSpace(s.ProductName),
		SerialNumber: strings.TrimSpace(s.SerialNumber),
		RackLocation: strings.TrimSpace(s.RackLocation),
		Username:     strings.TrimSpace(s.Username),
	}
}

// Validate reports the first field that is blank or too short.
func (s Server) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"product_name", s.ProductName},
		{"serial_number", s.SerialNumber},
		{"rack_location", s.RackLocation},
		{"username", s.Username},
	}
	for _, f := range fields {
		if err := ValidateField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateField applies the input rule used for every record field:
// non-empty and at least MinFieldLen characters once trimmed.
func ValidateField(name, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidRecord, name)
	}
	if len([]rune(v)) < MinFieldLen {
		return fmt.Errorf("%w: %s must be at least %d characters long", ErrInvalidRecord, name, MinFieldLen)
	}
	return nil
}

// matches reports whether any field contains term. term must already be canonical.
func (s Server) matches(term string) bool {
	return strings.Contains(canonical(s.ProductName), term) ||
		strings.Contains(canonical(s.SerialNumber), term) ||
		strings.Contains(canonical(s.RackLocation), term) ||
		strings.Contains(canonical(s.Username), term)
}

// canonical lower-cases without locale rules so comparisons are stable
// across platforms.
func canonical(s string) string {
	return strings.ToLower(s)
}
