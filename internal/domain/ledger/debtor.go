package ledger

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Erickgiber/debts-my-clients/internal/domain/shared"
)

const (
	maxNameLength  = 200
	maxPhoneLength = 50
)

// Debtor is a client who owes or has owed money for sales
type Debtor struct {
	shared.BaseEntity
	Name  string
	Phone string
	Notes string
}

// NormalizeName returns the lookup key for a debtor name. Debtors are
// matched case-insensitively on the trimmed name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewDebtor creates a debtor stamped at now
func NewDebtor(name, phone, notes string, now time.Time) (*Debtor, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	phone = strings.TrimSpace(phone)
	if utf8.RuneCountInString(phone) > maxPhoneLength {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	return &Debtor{
		BaseEntity: shared.NewBaseEntity(now),
		Name:       name,
		Phone:      phone,
		Notes:      strings.TrimSpace(notes),
	}, nil
}

// Key returns the normalized name
func (d *Debtor) Key() string {
	return NormalizeName(d.Name)
}

// Merge applies contact details from a repeated entry. Empty values keep
// what is stored. It reports whether anything changed.
func (d *Debtor) Merge(phone, notes string, now time.Time) bool {
	changed := false
	if phone = strings.TrimSpace(phone); phone != "" && phone != d.Phone {
		d.Phone = phone
		changed = true
	}
	if notes = strings.TrimSpace(notes); notes != "" && notes != d.Notes {
		d.Notes = notes
		changed = true
	}
	if changed {
		d.Touch(now)
	}
	return changed
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Debtor name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Debtor name cannot exceed 200 characters")
	}
	return nil
}
