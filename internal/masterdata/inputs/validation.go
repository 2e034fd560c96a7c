package inputs

import (
	"strconv"

	mdshared "github.com/nutri-erp/nutri-erp/internal/masterdata/shared"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

func validate(in Input) error {
	if in.Code == "" {
		return shared.Validationf("input code is required")
	}
	if in.Name == "" {
		return shared.Validationf("input name is required")
	}
	if in.Unit == "" {
		return shared.Validationf("unit of measure is required")
	}
	if in.MinimumStock.IsNegative() {
		return shared.Validationf("minimum stock cannot be negative")
	}
	if !mdshared.ValidStatus(in.Status) {
		return shared.Validationf("unknown status %q", in.Status)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
