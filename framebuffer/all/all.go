// Package all imports all displays implemented by the framebuffer package.
package all

import (
	_ "github.com/noriah/fbspectrum/framebuffer/fbdev"
	_ "github.com/noriah/fbspectrum/framebuffer/memory"
	_ "github.com/noriah/fbspectrum/framebuffer/term"
)
