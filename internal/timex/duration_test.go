package timex

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDuration_UnmarshalJSON_String(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"72h"`), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Duration != 72*time.Hour {
		t.Fatalf("expected 72h, got %v", d.Duration)
	}
}

func TestDuration_UnmarshalJSON_Nanoseconds(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`60000000000`), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Duration != time.Minute {
		t.Fatalf("expected 1m, got %v", d.Duration)
	}
}

func TestDuration_UnmarshalJSON_Invalid(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"not-a-duration"`), &d); err == nil {
		t.Fatalf("expected error for invalid duration string")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Fatalf("expected error for boolean")
	}
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	d := Duration{Duration: 12 * time.Hour}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var back Duration
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Duration != d.Duration {
		t.Fatalf("round trip mismatch: %v != %v", back.Duration, d.Duration)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		want      string
	}{
		{"days and hours", 62 * time.Hour, "2d 14h left"},
		{"hours and minutes", 5*time.Hour + 20*time.Minute, "5h 20m left"},
		{"minutes only", 30 * time.Minute, "30m left"},
		{"under a minute", 20 * time.Second, "Less than 1m"},
		{"zero", 0, "Expired"},
		{"negative", -time.Hour, "Expired"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatRemaining(tc.remaining); got != tc.want {
				t.Fatalf("FormatRemaining(%v) = %q, want %q", tc.remaining, got, tc.want)
			}
		})
	}
}
