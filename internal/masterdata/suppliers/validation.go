package suppliers

import (
	"strings"

	mdshared "github.com/nutri-erp/nutri-erp/internal/masterdata/shared"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

const cnpjDigits = 14

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return shared.Validationf("supplier name is required")
	}
	if len(sup.CNPJ) != cnpjDigits {
		return shared.Validationf("cnpj must have %d digits", cnpjDigits)
	}
	if !mdshared.ValidStatus(sup.Status) {
		return shared.Validationf("unknown status %q", sup.Status)
	}
	return nil
}

func apply(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
