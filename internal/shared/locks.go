package shared

import "time"

// ClosingLockKey builds the redis key serialising month-end closing work.
func ClosingLockKey(month time.Time) string {
	return "closing:month:" + month.Format("2006-01")
}
