package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{name: "unset uses default", value: "", defaultValue: true, want: true},
		{name: "true", value: "true", defaultValue: false, want: true},
		{name: "numeric true", value: "1", defaultValue: false, want: true},
		{name: "yes with case", value: "YES", defaultValue: false, want: true},
		{name: "on with whitespace", value: " on ", defaultValue: false, want: true},
		{name: "false", value: "false", defaultValue: true, want: false},
		{name: "numeric false", value: "0", defaultValue: true, want: false},
		{name: "off", value: "off", defaultValue: true, want: false},
		{name: "invalid uses default", value: "maybe", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "UTIL_TEST_BOOL"
			if tt.value != "" {
				t.Setenv(key, tt.value)
			} else {
				t.Setenv(key, "")
			}
			if got := ParseBoolEnv(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}
