//go:build !linux

package fbdev

import (
	"github.com/noriah/fbspectrum/framebuffer"
	"github.com/pkg/errors"
)

// Open always fails; framebuffer devices are linux only.
func Open(cfg framebuffer.Config) (framebuffer.Device, error) {
	return nil, errors.New("fbdev is only available on linux")
}
