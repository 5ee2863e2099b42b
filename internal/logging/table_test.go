package logging

import (
	"math"
	"strings"
	"testing"
)

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     string
	}{
		{"zero", 0.0, 2, "0.00"},
		{"positive", 3.14159, 2, "3.14"},
		{"negative", -16.5, 1, "-16.5"},
		{"large", 12345.6789, 2, "12345.68"},
		{"small_normal", 0.001, 3, "0.001"},
		{"very_small_scientific", 0.00001, 2, "1.00e-05"},
		{"nan", math.NaN(), 2, MissingValue},
		{"positive_inf", math.Inf(1), 2, MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetric(tt.value, tt.decimals)
			if got != tt.want {
				t.Errorf("formatMetric(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatMetricWithUnit(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		unit     string
		want     string
	}{
		{"with_unit", 42.0, 1, "deg/s", "42.0 deg/s"},
		{"no_unit", 1234.5, 1, "", "1234.5"},
		{"nan_with_unit", math.NaN(), 1, "Hz", MissingValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMetricWithUnit(tt.value, tt.decimals, tt.unit)
			if got != tt.want {
				t.Errorf("formatMetricWithUnit(%v, %d, %q) = %q, want %q", tt.value, tt.decimals, tt.unit, got, tt.want)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(1, 8); got != "12.5%" {
		t.Errorf("formatPercent(1, 8) = %q, want %q", got, "12.5%")
	}
	if got := formatPercent(3, 0); got != MissingValue {
		t.Errorf("formatPercent(3, 0) = %q, want %q", got, MissingValue)
	}
}

func TestMetricTableString(t *testing.T) {
	t.Run("basic_two_column", func(t *testing.T) {
		table := NewMetricTable("Creak", "Tone")
		table.AddRow("Angle Smoothing", []string{"0.85", "0.20"}, "", "")
		table.AddRow("Movement Timeout", []string{"30", "150"}, "ms", "")

		output := table.String()

		for _, want := range []string{"Creak", "Tone", "Angle Smoothing", "150", "ms"} {
			if !strings.Contains(output, want) {
				t.Errorf("Output should contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("with_interpretation", func(t *testing.T) {
		table := NewMetricTable("Value")
		table.AddRow("Dropped", []string{"12"}, "", "check the sensor cable")

		output := table.String()

		if !strings.Contains(output, "Interpretation") {
			t.Error("Output should contain 'Interpretation' header when rows have interpretations")
		}
		if !strings.Contains(output, "check the sensor cable") {
			t.Error("Output should contain interpretation text")
		}
	})

	t.Run("missing_values", func(t *testing.T) {
		table := NewMetricTable("A", "B", "C")
		table.AddRow("Test Metric", []string{"-10.0", ""}, "deg", "")

		output := table.String()

		if !strings.Contains(output, " -  ") {
			t.Error("Missing values should display as dash")
		}
	})

	t.Run("empty_table", func(t *testing.T) {
		table := NewMetricTable("Value")
		if output := table.String(); output != "" {
			t.Errorf("Empty table should return empty string, got %q", output)
		}
	})

	t.Run("add_metric_row_with_nan", func(t *testing.T) {
		table := NewMetricTable("Min", "Mean", "Max")
		table.AddMetricRow("Velocity", []float64{0, math.NaN(), 310.5}, 1, "deg/s", "")

		lines := strings.Split(table.String(), "\n")
		if len(lines) < 2 {
			t.Fatal("Expected at least 2 lines (header + data)")
		}
		dataLine := lines[1]
		if !strings.Contains(dataLine, "310.5") || !strings.Contains(dataLine, " - ") {
			t.Errorf("Unexpected data line: %q", dataLine)
		}
	})
}

func TestMetricTableAlignment(t *testing.T) {
	table := NewMetricTable("Value")
	table.AddRow("Short", []string{"1"}, "", "")
	table.AddRow("Much Longer Label", []string{"100"}, "", "")

	lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines (header + 2 data), got %d", len(lines))
	}

	// Right-aligned values end in the same column.
	if len(lines[1]) != len(lines[2]) {
		t.Errorf("Rows have different widths:\n%q\n%q", lines[1], lines[2])
	}
}
