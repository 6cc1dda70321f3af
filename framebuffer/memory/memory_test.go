package memory

import (
	"testing"

	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/noriah/fbspectrum/graphic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlitFlipsRows(t *testing.T) {
	d := New(framebuffer.Config{Width: 4, Height: 3})

	b := d.Info().NewBuffer()
	red := graphic.Color{R: 255}
	b.SetPixel(1, 0, red)

	require.NoError(t, d.Blit(b))

	// the bottom buffer row is the last screen row
	assert.Equal(t, red, d.At(1, 2))
	assert.Equal(t, graphic.Color{}, d.At(1, 0))
	assert.Equal(t, 1, d.Frames())
	assert.Equal(t, 1, d.Lit())
}

func TestVSyncWithoutRate(t *testing.T) {
	d := New(framebuffer.Config{})

	assert.NoError(t, d.WaitVSync())
	assert.Equal(t, framebuffer.DefaultWidth, d.Info().Width)
	assert.Equal(t, framebuffer.DefaultHeight, d.Info().Height)
}

func TestVSyncWithRate(t *testing.T) {
	d := New(framebuffer.Config{Width: 2, Height: 2, Rate: 1000})
	defer d.Close()

	assert.NoError(t, d.WaitVSync())
}

func TestRegistered(t *testing.T) {
	dev, err := framebuffer.OpenDevice("memory", framebuffer.Config{Width: 10, Height: 5})
	require.NoError(t, err)

	assert.Equal(t, 10, dev.Info().Width)
	assert.NoError(t, dev.Close())
	assert.True(t, dev.(*Device).Closed())

	_, err = framebuffer.OpenDevice("nope", framebuffer.Config{})
	assert.Error(t, err)
}
