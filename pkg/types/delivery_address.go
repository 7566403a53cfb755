package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Portuguese postal codes are always four digits, a dash, three digits.
var postalCodePattern = regexp.MustCompile(`^\d{4}-\d{3}$`)

// DeliveryAddress is the structured address snapshot stored on each order.
// Stored as jsonb so the ledger keeps exactly what the buyer submitted even if
// they later edit their saved addresses.
type DeliveryAddress struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
}

// Validate checks the field formats shared by checkout and reconciliation.
func (a DeliveryAddress) Validate() error {
	if strings.TrimSpace(a.Name) == "" || len(a.Name) > 100 {
		return fmt.Errorf("delivery address: name must be 1-100 chars")
	}
	if strings.TrimSpace(a.Street) == "" || len(a.Street) > 200 {
		return fmt.Errorf("delivery address: street must be 1-200 chars")
	}
	if strings.TrimSpace(a.City) == "" || len(a.City) > 100 {
		return fmt.Errorf("delivery address: city must be 1-100 chars")
	}
	if !postalCodePattern.MatchString(a.PostalCode) {
		return fmt.Errorf("delivery address: postal code must match 0000-000")
	}
	if len(a.Phone) < 9 || len(a.Phone) > 20 {
		return fmt.Errorf("delivery address: phone must be 9-20 chars")
	}
	for _, r := range a.Phone {
		if (r < '0' || r > '9') && r != ' ' && r != '+' && r != '(' && r != ')' && r != '-' {
			return fmt.Errorf("delivery address: phone contains invalid characters")
		}
	}
	return nil
}

// Value marshals the address into jsonb.
func (a DeliveryAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan decodes the jsonb column.
func (a *DeliveryAddress) Scan(value interface{}) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("delivery address: unsupported scan type %T", value)
	}
}
