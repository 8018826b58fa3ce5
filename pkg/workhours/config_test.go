package workhours

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"08:30", 510, false},
		{"17:00:00", 1020, false},
		{"17:00:45", 1020, false}, // seconds discarded
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"12", 0, true},
		{"12:00:00:00", 0, true},
		{"noon", 0, true},
		{"", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigSetFallback(t *testing.T) {
	set := ConfigSet{
		Default: DefaultConfig(),
		Countries: map[string]Config{
			"DE": {
				GreenStart: "08:00",
				GreenEnd:   "16:00",
				WorkDays:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
			},
		},
	}

	if got := set.For("DE").GreenStart; got != "08:00" {
		t.Errorf("For(DE).GreenStart = %q, want 08:00", got)
	}
	if got := set.For("de").GreenStart; got != "08:00" {
		t.Errorf("For(de) should match case-insensitively, got GreenStart %q", got)
	}
	if got := set.For("BR").GreenStart; got != "09:00" {
		t.Errorf("For(BR) should fall back to default, got GreenStart %q", got)
	}
}

func TestLoadConfigSet(t *testing.T) {
	content := `
default:
  green_start: "09:00"
  green_end: "17:00"
  orange_morning_start: "08:00"
  orange_morning_end: "09:00"
  orange_evening_start: "17:00"
  orange_evening_end: "19:00"
  work_days: [1, 2, 3, 4, 5]
countries:
  jp:
    green_start: "10:00"
    green_end: "18:00"
    orange_morning_start: "09:00"
    orange_morning_end: "10:00"
    orange_evening_start: "18:00"
    orange_evening_end: "20:00"
    work_days: [1, 2, 3, 4, 5]
`
	path := filepath.Join(t.TempDir(), "countries.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := LoadConfigSet(path)
	if err != nil {
		t.Fatalf("LoadConfigSet: %v", err)
	}

	jp := set.For("JP")
	if jp.GreenStart != "10:00" {
		t.Errorf("JP green_start = %q, want 10:00", jp.GreenStart)
	}
	if !jp.IsWorkDay(time.Monday) || jp.IsWorkDay(time.Saturday) {
		t.Errorf("JP work days parsed incorrectly: %v", jp.WorkDays)
	}
	if set.For("US").GreenStart != "09:00" {
		t.Errorf("unlisted country should use file default")
	}
}

func TestLoadConfigSetMissingDefault(t *testing.T) {
	content := `
countries:
  fr:
    green_start: "09:30"
    green_end: "17:30"
    work_days: [1, 2, 3, 4, 5]
`
	path := filepath.Join(t.TempDir(), "countries.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := LoadConfigSet(path)
	if err != nil {
		t.Fatalf("LoadConfigSet: %v", err)
	}
	if set.For("US").GreenStart != DefaultConfig().GreenStart {
		t.Errorf("missing default in file should fall back to DefaultConfig")
	}
}

func TestLoadConfigSetErrors(t *testing.T) {
	if _, err := LoadConfigSet(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("default: [not, a, map]"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigSet(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
