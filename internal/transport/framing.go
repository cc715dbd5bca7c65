// Package transport implements the local-domain socket transport
// described in §6: a stream of length-free structured-object messages,
// each terminated by a trailing newline or by the completion of the
// top-level JSON object, honoring quoted strings and escapes. It is the
// external collaborator the core scheduler never imports directly.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// MaxMessageSize is the protocol-error threshold from §6.
const MaxMessageSize = 16 * 1024 * 1024

// ErrProtocol signals an oversized or malformed message (§7, "Protocol").
var ErrProtocol = errors.New("transport: protocol error")

// FrameReader pulls one top-level JSON object at a time off a byte
// stream, tracking string-quoting and brace depth exactly the way the
// original uds_receive_message scanner does, so a newline inside a
// quoted string never ends a message early.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r for frame-at-a-time reading.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 4096)}
}

// ReadFrame returns the next complete message, with its terminating
// newline (if any) stripped. It returns io.EOF once the underlying
// stream is exhausted with no partial message pending.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var (
		buf        []byte
		braceDepth int
		inString   bool
		escaped    bool
		foundStart bool
	)

	for {
		b, err := f.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) == 0 {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: truncated message", ErrProtocol)
			}
			return nil, fmt.Errorf("transport: read: %w", err)
		}

		if len(buf) >= MaxMessageSize {
			return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrProtocol, MaxMessageSize)
		}

		if !foundStart {
			// Skip leading whitespace/newlines between messages.
			if b == '\n' || b == '\r' || b == ' ' || b == '\t' {
				continue
			}
			foundStart = true
		}

		buf = append(buf, b)

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			braceDepth++
		case '}':
			braceDepth--
			if braceDepth == 0 {
				return buf, nil
			}
		case '\n':
			if braceDepth == 0 {
				return buf[:len(buf)-1], nil
			}
		}
	}
}
