package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

type mode string

const (
	modeAlpha mode = "alpha"
	modeBeta  mode = "beta"
)

func newModes() *Normalizer[mode] {
	return New("mode", map[string]mode{"alpha": modeAlpha, "Beta": modeBeta, "b": modeBeta}, "")
}

func TestNormalize(t *testing.T) {
	n := newModes()
	tests := []struct {
		in   string
		want mode
	}{
		{"alpha", modeAlpha},
		{"  ALPHA ", modeAlpha},
		{"beta", modeBeta},
		{"B", modeBeta},
		{"gamma", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
			assert.Equal(t, tt.want != "", n.Known(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	n := newModes()

	v, err := n.Parse(" Beta")
	require.NoError(t, err)
	assert.Equal(t, modeBeta, v)

	_, err = n.Parse("gamma")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	c, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, "invalid mode", c.Message())
	valid, _ := c.Context().Get("valid")
	assert.Equal(t, []string{"alpha", "b", "beta"}, valid)
}
