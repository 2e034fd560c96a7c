package audit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV encodes audit rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"at", "actor_id", "actor_name", "action", "entity", "entity_id", "meta"}); err != nil {
		return err
	}
	for _, row := range rows {
		actor := ""
		if row.ActorID != nil {
			actor = strconv.FormatInt(*row.ActorID, 10)
		}
		record := []string{
			row.At.UTC().Format(time.RFC3339),
			actor,
			row.ActorName,
			row.Action,
			row.Entity,
			row.EntityID,
			string(row.Meta),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
