package types

import "strings"

// AddressRecord is the billing/shipping shape the upstream platform expects.
// Line2 is the only optional field.
type AddressRecord struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Line1     string `json:"address_1" validate:"required"`
	Line2     string `json:"address_2,omitempty"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Postcode  string `json:"postcode" validate:"required,postcode"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,mobile"`
}

// IsZero reports whether no field has been filled in yet.
func (a AddressRecord) IsZero() bool {
	return strings.TrimSpace(a.FirstName) == "" &&
		strings.TrimSpace(a.LastName) == "" &&
		strings.TrimSpace(a.Line1) == "" &&
		strings.TrimSpace(a.Line2) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.Postcode) == "" &&
		strings.TrimSpace(a.Email) == "" &&
		strings.TrimSpace(a.Phone) == ""
}

// MergeMissing copies fields from other into a copy of a, never overwriting a
// field the user has already filled in.
func (a AddressRecord) MergeMissing(other AddressRecord) AddressRecord {
	merged := a
	if merged.FirstName == "" {
		merged.FirstName = other.FirstName
	}
	if merged.LastName == "" {
		merged.LastName = other.LastName
	}
	if merged.Line1 == "" {
		merged.Line1 = other.Line1
	}
	if merged.Line2 == "" {
		merged.Line2 = other.Line2
	}
	if merged.City == "" {
		merged.City = other.City
	}
	if merged.State == "" {
		merged.State = other.State
	}
	if merged.Postcode == "" {
		merged.Postcode = other.Postcode
	}
	if merged.Email == "" {
		merged.Email = other.Email
	}
	if merged.Phone == "" {
		merged.Phone = other.Phone
	}
	return merged
}
