package util

import (
	"reflect"
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"numeric on", "1", false, true},
		{"yes mixed case", " YeS ", false, true},
		{"off", "off", true, false},
		{"invalid uses default", "maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLOWD_TEST_BOOL", tt.value)
			if got := ParseBoolEnv("FLOWD_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset uses default", "", time.Minute},
		{"minutes", "30m", 30 * time.Minute},
		{"negative", "-1s", -time.Second},
		{"invalid uses default", "soon", time.Minute},
		{"bare number is invalid", "300", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLOWD_TEST_DURATION", tt.value)
			if got := ParseDurationEnv("FLOWD_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("ParseDurationEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseListEnv(t *testing.T) {
	def := []string{"*"}
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"unset uses default", "", def},
		{"single", "https://a.vn", []string{"https://a.vn"}},
		{"trims and drops empties", " https://a.vn, ,https://b.vn ", []string{"https://a.vn", "https://b.vn"}},
		{"only separators uses default", " , ", def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLOWD_TEST_LIST", tt.value)
			if got := ParseListEnv("FLOWD_TEST_LIST", def); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseListEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
