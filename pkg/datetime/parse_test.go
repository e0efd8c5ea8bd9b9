package datetime

import (
	"testing"
	"time"
)

func TestMustParseTime(t *testing.T) {
	tests := []struct {
		name     string
		layout   string
		dateStr  string
		expected string
	}{
		{
			name:     "Valid date",
			layout:   DateLayout,
			dateStr:  "15/03/2025",
			expected: "15/03/2025",
		},
		{
			name:     "Valid timestamp",
			layout:   DateTimeLayout,
			dateStr:  "31/12/2030 23:59",
			expected: "31/12/2030 23:59",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MustParseTime(tt.layout, tt.dateStr)
			if result.Format(tt.layout) != tt.expected {
				t.Errorf("MustParseTime() = %s, expected %s", result.Format(tt.layout), tt.expected)
			}
		})
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected MustParseTime to panic with invalid date")
		}
	}()

	MustParseTime(DateLayout, "2025-01-15")
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2025, time.February, 7, 14, 30, 0, 0, time.UTC)
	if got := FormatDate(ts); got != "07/02/2025" {
		t.Errorf("FormatDate() = %s", got)
	}
	if got := FormatDateTime(ts); got != "07/02/2025 14:30" {
		t.Errorf("FormatDateTime() = %s", got)
	}
}

func TestOffsetMonths(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{"Add multiple years", "15/01/2025", 24, "15/01/2027"},
		{"Subtract multiple years", "15/01/2025", -24, "15/01/2023"},
		{"Cross year boundary forward", "10/06/2025", 8, "10/02/2026"},
		{"Cross year boundary backward", "10/06/2025", -8, "10/10/2024"},
		{"Zero months", "10/06/2025", 0, "10/06/2025"},
		{"Clamp to short month", "31/01/2025", 1, "28/02/2025"},
		{"Clamp to leap February", "31/01/2024", 1, "29/02/2024"},
		{"Clamp to 30-day month", "31/03/2025", 1, "30/04/2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDate(OffsetMonths(MustParseTime(DateLayout, tt.date), tt.months))
			if result != tt.expected {
				t.Errorf("OffsetMonths() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	start := MustParseTime(DateLayout, "31/08/2025")
	expected := []string{"30/09/2025", "31/10/2025", "30/11/2025", "31/12/2025", "31/01/2026", "28/02/2026"}
	for i, want := range expected {
		if got := FormatDate(DueDate(start, i+1)); got != want {
			t.Errorf("DueDate(%d) = %s, expected %s", i+1, got, want)
		}
	}
}
