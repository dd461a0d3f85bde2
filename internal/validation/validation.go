package validation

import (
	"fmt"
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ValidateCurrency checks that code is a known ISO 4217 currency code.
func ValidateCurrency(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrency, code)
	}
	return nil
}
