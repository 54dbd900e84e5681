package kafka

import (
	"errors"
	"testing"
)

func TestMatchFilter(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"purdue-dac/#", "purdue-dac/s1", true},
		{"purdue-dac/#", "purdue-dac/a/b", true},
		{"purdue-dac/#", "purdue-dac", true},
		{"purdue-dac/#", "other/s1", false},
		{"purdue-dac/#", "purdue-dacx/s1", false},
		{"purdue-dac/+", "purdue-dac/s1", true},
		{"purdue-dac/+", "purdue-dac/a/b", false},
		{"+/s1", "lab/s1", true},
		{"lab/s1", "lab/s1", true},
		{"lab/s1", "lab/s2", false},
		{"lab/s1", "lab", false},
		{"#", "anything/at/all", true},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"|"+tt.topic, func(t *testing.T) {
			if got := MatchFilter(tt.filter, tt.topic); got != tt.want {
				t.Errorf("MatchFilter(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
			}
		})
	}
}

func TestValidateFilter(t *testing.T) {
	valid := []string{"ns/#", "#", "ns/+/x", "ns/device"}
	for _, f := range valid {
		if err := ValidateFilter(f); err != nil {
			t.Errorf("ValidateFilter(%q) error = %v", f, err)
		}
	}

	invalid := []string{"", "ns/#/x", "ns/a#", "ns/a+", "#/x"}
	for _, f := range invalid {
		if err := ValidateFilter(f); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("ValidateFilter(%q) error = %v, want ErrInvalidFilter", f, err)
		}
	}
}
