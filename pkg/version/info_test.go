package version

import (
	"testing"
)

func Test_makeVersionString(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		commitHash string
		os         string
		arch       string
		expected   string
	}{
		{
			name:     "development build",
			version:  "development",
			expected: "development",
		},
		{
			name:       "tagged release",
			version:    "1.2.0",
			commitHash: "abc123",
			os:         "linux",
			arch:       "amd64",
			expected:   "1.2.0(abc123)/linux-amd64",
		},
		{
			name:       "no arch",
			version:    "1.2.0",
			commitHash: "abc123",
			os:         "linux",
			expected:   "1.2.0(abc123)/linux",
		},
		{
			name:     "no commit hash",
			version:  "1.2.0",
			os:       "linux",
			arch:     "arm64",
			expected: "1.2.0/linux-arm64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := makeVersionString(tt.version, tt.commitHash, tt.os, tt.arch); got != tt.expected {
				t.Errorf("makeVersionString() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
