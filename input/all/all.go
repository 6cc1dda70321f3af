// Package all imports all backends implemented by the input package.
package all

import (
	_ "github.com/noriah/fbspectrum/input/ffmpeg"
	_ "github.com/noriah/fbspectrum/input/parec"
	_ "github.com/noriah/fbspectrum/input/pipewire"
	_ "github.com/noriah/fbspectrum/input/stdinput"
	_ "github.com/noriah/fbspectrum/input/wavfile"
)
