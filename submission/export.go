package submission

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"id", "timestamp", "form_type", "name", "email", "phone", "message",
	"webhook_status", "attempts", "last_attempt_at", "error", "form_data",
}

// WriteCSV writes submissions with the common lead fields promoted to columns;
// the full form data is kept as a JSON column.
func WriteCSV(w io.Writer, subs []Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range subs {
		formData, err := json.Marshal(s.FormData)
		if err != nil {
			return fmt.Errorf("marshaling form data of %s: %w", s.ID, err)
		}
		record := []string{
			s.ID,
			s.Timestamp.UTC().Format(time.RFC3339),
			s.FormType,
			field(s.FormData, "name"),
			field(s.FormData, "email"),
			field(s.FormData, "phone"),
			field(s.FormData, "message"),
			s.WebhookStatus.String(),
			strconv.Itoa(s.Attempts),
			formatTime(s.LastAttemptAt),
			s.Error,
			string(formData),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// field returns a form value as text, empty when absent.
func field(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
