// Package timex holds small time helpers shared by config parsing and the
// sync engine: a JSON-friendly Duration type and human-readable formatting
// of remaining lifetimes.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Duration wraps time.Duration so JSON config files can express intervals
// either as strings ("72h", "30m") or as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// FormatRemaining renders a remaining lifetime the way the dashboard shows
// it: "2d 14h left", "5h 20m left", "30m left", or "Expired" once zero.
func FormatRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "Expired"
	}

	days := remaining / (24 * time.Hour)
	hours := (remaining % (24 * time.Hour)) / time.Hour
	minutes := (remaining % time.Hour) / time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh left", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm left", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm left", minutes)
	default:
		return "Less than 1m"
	}
}
