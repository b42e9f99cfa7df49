package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRBF_Eval(t *testing.T) {
	t.Parallel()

	k := RBF{Gamma: 0.5}
	assert.Equal(t, 1.0, k.Eval([]float64{1, 2}, []float64{1, 2}))
	assert.InDelta(t, math.Exp(-4), k.Eval([]float64{-1, -1}, []float64{1, 1}), 1e-15)
}

func TestResolveGamma(t *testing.T) {
	t.Parallel()

	x := mat.NewDense(2, 4, []float64{0, 0, 0, 0, 2, 2, 2, 2})

	tests := []struct {
		setting string
		want    float64
		wantErr bool
	}{
		{setting: "", want: 0.25},
		{setting: "auto", want: 0.25},
		{setting: " AUTO ", want: 0.25},
		{setting: "scale", want: 0.25}, // var = 1
		{setting: "0.7", want: 0.7},
		{setting: "0", wantErr: true},
		{setting: "-1", wantErr: true},
		{setting: "wide", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.setting, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveGamma(tt.setting, x)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	g, err := ResolveGamma(GammaScale, mat.NewDense(2, 2, []float64{3, 3, 3, 3}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, g)
}

func TestGram(t *testing.T) {
	t.Parallel()

	x := mat.NewDense(3, 1, []float64{0, 1, 3})
	g := gram(RBF{Gamma: 1}, x)

	n, _ := g.Dims()
	require.Equal(t, 3, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, 1.0, g.At(i, i))
	}
	assert.InDelta(t, math.Exp(-1), g.At(0, 1), 1e-15)
	assert.InDelta(t, math.Exp(-9), g.At(2, 0), 1e-15)
}
