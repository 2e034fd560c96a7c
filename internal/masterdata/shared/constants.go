package shared

// Record statuses shared by master data entities. Deletes are soft and
// flip status to StatusInactive.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidStatus reports whether s is a known master data status.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}
