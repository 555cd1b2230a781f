package gemini

import (
	"encoding/json"
	"strings"
)

// doneSentinel terminates a stream; anything after it in the same chunk is
// ignored.
const doneSentinel = "[DONE]"

const dataPrefix = "data:"

// decoderState tracks the incremental parse position.
type decoderState int

const (
	// stateAccumulating: waiting for a complete line (newline not yet seen,
	// or the last data line failed to parse and was pushed back).
	stateAccumulating decoderState = iota
	// stateLineReady: a complete line is buffered and ready to consume.
	stateLineReady
	// stateDone: the end sentinel was seen; all further input is discarded.
	stateDone
)

// Decoder reassembles server-sent-event data lines from arbitrary byte
// chunks into decoded text deltas. Lines split across chunk boundaries are
// carried over; a data line whose JSON payload fails to parse is pushed back
// and retried once more bytes arrive, since the payload may contain embedded
// newlines and arrive in pieces.
type Decoder struct {
	buf   strings.Builder
	state decoderState
}

// NewDecoder returns a fresh decoder in the accumulating state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Done reports whether the end sentinel has been consumed.
func (d *Decoder) Done() bool {
	return d.state == stateDone
}

// Feed appends a chunk of raw bytes and returns the text deltas completed by
// it, in arrival order.
func (d *Decoder) Feed(chunk []byte) []string {
	if d.state == stateDone {
		return nil
	}

	buffered := d.buf.String() + string(chunk)
	d.buf.Reset()

	var deltas []string
	for {
		idx := strings.IndexByte(buffered, '\n')
		if idx < 0 {
			d.state = stateAccumulating
			break
		}
		d.state = stateLineReady

		line := buffered[:idx]
		rest := buffered[idx+1:]
		line = strings.TrimSuffix(line, "\r")

		delta, consumed := d.consumeLine(line)
		if d.state == stateDone {
			return deltas
		}
		if !consumed {
			// Push the line back and wait for more bytes; the JSON payload
			// may be split across an embedded newline.
			buffered = line + "\n" + rest
			d.state = stateAccumulating
			break
		}

		buffered = rest
		if delta != "" {
			deltas = append(deltas, delta)
		}
	}

	d.buf.WriteString(buffered)
	return deltas
}

// consumeLine handles one complete line. Returns the extracted delta (may be
// empty) and whether the line was consumed; an unconsumed line must be
// pushed back.
func (d *Decoder) consumeLine(line string) (string, bool) {
	if line == "" || strings.HasPrefix(line, ":") || strings.TrimSpace(line) == "" {
		return "", true
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", true
	}

	payload := strings.TrimSpace(line[len(dataPrefix):])
	if payload == doneSentinel {
		d.state = stateDone
		return "", true
	}

	var resp response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		// Never discard: the line may simply be incomplete.
		return "", false
	}

	return resp.textDelta(), true
}
