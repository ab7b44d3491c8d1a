package filex

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces become underscores", "my holiday photo.jpg", "my_holiday_photo.jpg"},
		{"illegal chars stripped", "a b?.txt", "a_b.txt"},
		{"path separators", "..\\..\\evil/name.txt", ".._.._evil_name.txt"},
		{"colons and pipes", "a:b|c*d.log", "a_b_c_d.log"},
		{"control characters", "bad\x00\x1fname.bin", "bad_name.bin"},
		{"multiple underscores collapse", "a___b.txt", "a_b.txt"},
		{"leading trailing trimmed", "  name  .txt", "name.txt"},
		{"empty input", "", "file"},
		{"only illegal chars", "???", "file"},
		{"extension keeps dot", "archive.tar.gz", "archive.tar.gz"},
		{"hidden file keeps name", ".gitignore", ".gitignore"},
		{"illegal in extension removed", "doc.t?t", "doc.tt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeName(tc.in); got != tc.want {
				t.Fatalf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSanitizeName_LengthCap(t *testing.T) {
	long := strings.Repeat("a", 400) + ".txt"
	got := SanitizeName(long)

	if len(got) > MaxNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".txt") {
		t.Fatalf("extension must survive truncation, got %q", got)
	}
}

func TestSanitizeName_LengthCapRuneBoundary(t *testing.T) {
	// Multi-byte runes must not be split by the byte cap.
	long := strings.Repeat("ф", 300) + ".txt"
	got := SanitizeName(long)

	if len(got) > MaxNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", MaxNameBytes, len(got))
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("truncation split a rune: %q", got)
		}
	}
}
