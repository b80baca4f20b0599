package config

import "testing"

func TestIsProductionLike(t *testing.T) {
	tests := []struct {
		environment string
		want        bool
	}{
		{"development", false},
		{"STAGING", true},
		{"Production", true},
		{" production ", true},
		{"", false},
		{"test", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			if got := IsProductionLike(tt.environment); got != tt.want {
				t.Errorf("IsProductionLike(%q) = %v, want %v", tt.environment, got, tt.want)
			}
		})
	}
}
