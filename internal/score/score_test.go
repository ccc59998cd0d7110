package score

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brianndofor/trialrev/internal/risk"
)

func items(sevs ...risk.Severity) []risk.Item {
	out := make([]risk.Item, 0, len(sevs))
	for _, s := range sevs {
		out = append(out, risk.Item{Description: string(s), Severity: s})
	}
	return out
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		risks []risk.Item
		want  int
	}{
		{"empty", nil, 100},
		{"one low", items(risk.Low), 95},
		{"one medium", items(risk.Medium), 85},
		{"one high", items(risk.High), 70},
		{"one of each", items(risk.Low, risk.Medium, risk.High), 50},
		{"four high clamps", items(risk.High, risk.High, risk.High, risk.High), 0},
		{"unknown severity free", items("Critical", "", risk.Low), 95},
		{"lowercase is not normalized here", items("high"), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.risks))
		})
	}
}

func TestComputeBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sevs := []risk.Severity{risk.Low, risk.Medium, risk.High, "Other"}
	for i := 0; i < 200; i++ {
		n := rng.Intn(12)
		var list []risk.Item
		for j := 0; j < n; j++ {
			list = append(list, items(sevs[rng.Intn(len(sevs))])...)
		}
		got := Compute(list)
		assert.GreaterOrEqual(t, got, Min)
		assert.LessOrEqual(t, got, Max)
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	list := items(risk.High, risk.Low, risk.Medium, risk.Low, "Unknown", risk.High)
	want := Compute(list)
	for i := 0; i < 50; i++ {
		shuffled := append([]risk.Item(nil), list...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Compute(shuffled))
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, BandLow, Band(100))
	assert.Equal(t, BandLow, Band(80))
	assert.Equal(t, BandModerate, Band(79))
	assert.Equal(t, BandModerate, Band(50))
	assert.Equal(t, BandHigh, Band(49))
	assert.Equal(t, BandHigh, Band(0))
}
