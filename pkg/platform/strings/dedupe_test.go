package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil input", nil, nil},
		{"trims and drops empties", []string{"  a ", "", "  "}, []string{"a"}},
		{"removes duplicates keeping order", []string{"b", "a", "b", "a"}, []string{"b", "a"}},
		{"duplicate after trimming", []string{" a", "a "}, []string{"a"}},
		{"case is preserved", []string{"A", "a"}, []string{"A", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}
