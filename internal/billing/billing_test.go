package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeCost(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		leaving time.Time
		price   float64
		want    float64
	}{
		{"one hour", t0.Add(time.Hour), 10.0, 10.00},
		{"ninety minutes", t0.Add(5400 * time.Second), 10.0, 15.00},
		{"zero duration", t0, 10.0, 0},
		{"free lot", t0.Add(3 * time.Hour), 0, 0},
		{"leaving before parking", t0.Add(-time.Hour), 10.0, 0},
		{"rounds to cents", t0.Add(20 * time.Minute), 10.0, 3.33},
		{"rounds half up", t0.Add(450 * time.Second), 1.0, 0.13}, // 0.125
		{"one second", t0.Add(time.Second), 36.0, 0.01},
		{"half hour tie", t0.Add(30 * time.Minute), 2.01, 1.01},
		{"one hour tie", t0.Add(time.Hour), 1.005, 1.01},
		{"below tie", t0.Add(30 * time.Minute), 2.0099, 1.0},
		{"sub-second", t0.Add(1800*time.Second + 500*time.Millisecond), 3600, 1800.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCost(t0, tt.leaving, tt.price))
		})
	}
}

func TestComputeCostIsPure(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	first := ComputeCost(t0, t0.Add(47*time.Minute), 12.5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComputeCost(t0, t0.Add(47*time.Minute), 12.5))
	}
}

func TestDurationHours(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 1.5, DurationHours(t0, t0.Add(90*time.Minute)))
	assert.Equal(t, 0.33, DurationHours(t0, t0.Add(20*time.Minute)))
	assert.Equal(t, 0.0, DurationHours(t0, t0.Add(-time.Minute)))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.68, Round2(2.675))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, 25.0, Round2(25))
}
