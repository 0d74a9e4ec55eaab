package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatible(t *testing.T) {
	tests := []struct {
		remote, local string
		exp           bool
	}{
		{"1.2.3", "1.2.0", true},
		{"1.2.3", "1.3.0", false},
		{"2.0.0", "1.9.9", false},
		{"v1.4.0", "1.4.7", true},
		{"1.2.3", EmptyValue, true},
		{"1.2.3-rc1", "1.5.0", true},
		{"", "1.2.3", true},
		{"1.2", "1.3", true},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, Compatible(test.remote, test.local),
			"remote=%q local=%q", test.remote, test.local)
	}
}
