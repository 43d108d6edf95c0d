package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePoints(t *testing.T) {
	cases := []struct {
		name      string
		hintsUsed int
		passes    int
		misses    int
		want      int
	}{
		{"first hint clean answer", 1, 0, 0, 100},
		{"second hint", 2, 0, 0, 80},
		{"fifth hint hits the base floor", 5, 0, 0, 20},
		{"tenth hint stays on the base floor", 10, 0, 0, 20},
		{"one pass costs ten", 2, 1, 0, 70},
		{"one miss costs thirty", 1, 0, 1, 70},
		{"three passes weigh as one miss", 1, 3, 0, 70},
		{"penalties never drop below ten", 1, 0, 3, 10},
		{"floor applies on top of base floor", 5, 2, 1, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputePoints(tc.hintsUsed, tc.passes, tc.misses))
		})
	}
}
