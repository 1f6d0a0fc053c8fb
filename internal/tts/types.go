package tts

import (
	"context"
	"io"
)

// Synthesizer is the interface for text-to-speech providers: submit text,
// receive a streamed byte sequence of synthesized audio. The caller owns the
// returned stream and must close it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}
