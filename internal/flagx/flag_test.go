package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		allowed  []string
		expected []string
	}{
		{
			name:     "keeps allowed flag with value",
			args:     []string{"-a", ":8080", "-z", "junk"},
			allowed:  []string{"-a"},
			expected: []string{"-a", ":8080"},
		},
		{
			name:     "keeps equals form",
			args:     []string{"--config=conf.json", "-d", "dsn"},
			allowed:  []string{"--config", "-d"},
			expected: []string{"--config=conf.json", "-d", "dsn"},
		},
		{
			name:     "drops unknown equals form",
			args:     []string{"--other=1", "-d", "dsn"},
			allowed:  []string{"-d"},
			expected: []string{"-d", "dsn"},
		},
		{
			name:     "flag followed by another flag keeps no value",
			args:     []string{"-a", "-d", "dsn"},
			allowed:  []string{"-a", "-d"},
			expected: []string{"-a", "-d", "dsn"},
		},
		{
			name:     "empty input",
			args:     []string{},
			allowed:  []string{"-a"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FilterArgs(tt.args, tt.allowed))
		})
	}
}
