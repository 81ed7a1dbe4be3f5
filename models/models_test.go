package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCrowdLevel(t *testing.T) {
	testCases := []struct {
		input   string
		want    CrowdLevel
		wantErr bool
	}{
		{input: "empty", want: LevelEmpty},
		{input: "moderate", want: LevelModerate},
		{input: "busy", want: LevelBusy},
		{input: "packed", want: LevelPacked},
		{input: "", wantErr: true},
		{input: "BUSY", wantErr: true},
		{input: "slammed", wantErr: true},
	}

	for _, tc := range testCases {
		got, err := ParseCrowdLevel(tc.input)
		if tc.wantErr != (err != nil) {
			t.Errorf("ParseCrowdLevel(%q): expected error: %v, got: %v", tc.input, tc.wantErr, err)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseCrowdLevel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCrowdLevelValues(t *testing.T) {
	ordered := []CrowdLevel{LevelEmpty, LevelModerate, LevelBusy, LevelPacked}
	for i, level := range ordered {
		if level.Value() != i+1 {
			t.Errorf("%s.Value() = %d, want %d", level, level.Value(), i+1)
		}
	}
}

func TestLevelFromAverage(t *testing.T) {
	third := decimal.NewFromInt(8).Div(decimal.NewFromInt(3)) // (1+3+4)/3

	testCases := []struct {
		name string
		avg  decimal.Decimal
		want CrowdLevel
	}{
		{name: "one maps to empty", avg: decimal.NewFromInt(1), want: LevelEmpty},
		{name: "exactly 1.5 still empty", avg: decimal.NewFromFloat(1.5), want: LevelEmpty},
		{name: "just above 1.5 is moderate", avg: decimal.NewFromFloat(1.51), want: LevelModerate},
		{name: "exactly 2.5 still moderate", avg: decimal.NewFromFloat(2.5), want: LevelModerate},
		{name: "2.667 maps to busy", avg: third, want: LevelBusy},
		{name: "exactly 3.5 still busy", avg: decimal.NewFromFloat(3.5), want: LevelBusy},
		{name: "above 3.5 is packed", avg: decimal.NewFromFloat(3.51), want: LevelPacked},
		{name: "four maps to packed", avg: decimal.NewFromInt(4), want: LevelPacked},
	}

	for _, tc := range testCases {
		if got := LevelFromAverage(tc.avg); got != tc.want {
			t.Errorf("%s: LevelFromAverage(%s) = %q, want %q", tc.name, tc.avg, got, tc.want)
		}
	}
}
