package sync_test

import (
	"testing"
	"time"

	"datasync/core/sync"

	"github.com/stretchr/testify/assert"
)

func TestValuesEqual(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{"both nil", nil, nil, true},
		{"source nil", nil, "x", false},
		{"target nil", "x", nil, false},
		{"same strings", "Desk", "Desk", true},
		{"different strings", "Desk", "Chair", false},
		{"surrounding whitespace ignored", "  Desk ", "Desk", true},
		{"string vs int", "10", 10, true},
		{"string vs float", "10", 10.0, true},
		{"scale difference is a difference", "10", "10.0", false},
		{"float keeps precision", 10.5, "10.5", true},
		{"timestamp vs text", ts, "2024-03-01 10:30:00", true},
		{"timestamp mismatch", ts, "2024-03-01 10:31:00", false},
		{"bytes vs string", []byte("Desk"), "Desk", true},
		{"empty vs blank", "", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, sync.ValuesEqual(tt.a, tt.b))
		})
	}
}
