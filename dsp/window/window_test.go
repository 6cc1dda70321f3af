package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ones(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = 1
	}

	return buf
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		fn, err := Lookup(name)
		require.NoError(t, err, name)

		buf := ones(64)
		fn(buf)

		for _, v := range buf {
			assert.LessOrEqual(t, v, 1.0+1e-9, name)
		}
	}

	_, err := Lookup("HANN")
	assert.NoError(t, err)

	_, err = Lookup("kaiser")
	assert.Error(t, err)
}

func TestHannShape(t *testing.T) {
	buf := ones(65)
	Hann(buf)

	assert.InDelta(t, 0, buf[0], 1e-9)
	assert.InDelta(t, 1, buf[32], 1e-9)
	assert.InDelta(t, buf[10], buf[54], 1e-9)
}

func TestRectangle(t *testing.T) {
	buf := ones(8)
	Rectangle(buf)
	assert.Equal(t, ones(8), buf)
}

func BenchmarkHann(b *testing.B) {
	buf := ones(8192)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		Hann(buf)
	}
}
