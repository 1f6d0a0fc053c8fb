package audio

import (
	"fmt"
	"io"
)

// StreamChunks reads r to completion and invokes fn with consecutive chunks
// of at most chunkSize bytes, in stream order. The chunk slice is reused
// between calls; fn must not retain it. A non-nil error from fn aborts the
// stream and is returned as-is.
func StreamChunks(r io.Reader, chunkSize int, fn func(chunk []byte) error) error {
	if chunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1, got %d", chunkSize)
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if cbErr := fn(buf[:n]); cbErr != nil {
				return cbErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read audio stream: %w", err)
		}
	}
}
