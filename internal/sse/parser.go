// Package sse decodes a server-sent-event chat stream incrementally. The
// parser is an explicit state machine so the "line split across chunk
// boundaries" recovery path is independently testable.
package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// State of the parser.
type State int

const (
	// StateAwaitingLine means the buffer holds no complete line yet.
	StateAwaitingLine State = iota
	// StateHaveLine means a line has been extracted and is being classified.
	StateHaveLine
	// StateDone means the [DONE] sentinel was seen; remaining data lines are
	// ignored but feeding is still legal until the transport ends.
	StateDone
	// StateErrored is terminal; the stream must be failed explicitly.
	StateErrored
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// maxEventBytes bounds both the residual buffer and any pushed-back
	// line. Without a bound, a genuinely malformed payload would be
	// re-buffered forever.
	maxEventBytes = 1 << 20

	// maxReparseAttempts bounds how many times a pushed-back line may regrow
	// and fail JSON parsing again before the stream is failed.
	maxReparseAttempts = 4
)

// ErrOversizedEvent is returned when an event grows past maxEventBytes
// without becoming parseable.
var ErrOversizedEvent = errors.New("sse: event exceeds size limit")

// ErrMalformedEvent is returned when a complete line repeatedly fails to
// parse; it cannot be an incomplete split at that point.
var ErrMalformedEvent = errors.New("sse: malformed event payload")

// chunkPayload is the fixed extraction path choices[0].delta.content.
type chunkPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Parser reassembles SSE data lines from arbitrary byte chunks and emits
// incremental text deltas in arrival order.
type Parser struct {
	buf   []byte
	state State

	lastFailed  string
	failedCount int
}

func NewParser() *Parser {
	return &Parser{state: StateAwaitingLine}
}

// State returns the current parser state.
func (p *Parser) State() State { return p.state }

// Done reports whether the [DONE] sentinel has been seen.
func (p *Parser) Done() bool { return p.state == StateDone }

// Feed appends one raw chunk and returns every text delta completed by it,
// in order. A nil error with no deltas means more bytes are needed.
func (p *Parser) Feed(chunk []byte) ([]string, error) {
	if p.state == StateErrored {
		return nil, ErrMalformedEvent
	}

	p.buf = append(p.buf, chunk...)

	var deltas []string
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			if len(p.buf) > maxEventBytes {
				p.state = StateErrored
				return deltas, ErrOversizedEvent
			}
			if p.state == StateHaveLine {
				p.state = StateAwaitingLine
			}
			return deltas, nil
		}

		line := p.buf[:idx]
		p.buf = p.buf[idx+1:]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if p.state != StateDone {
			p.state = StateHaveLine
		}

		text := string(line)
		switch {
		case text == "" || strings.HasPrefix(text, ":"):
			// blank line or SSE comment
			continue
		case !strings.HasPrefix(text, dataPrefix):
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(text, dataPrefix))
		if payload == doneSentinel {
			p.state = StateDone
			continue
		}
		if p.state == StateDone {
			continue
		}

		var chunk chunkPayload
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Assume a newline split the event: drop the newline, rejoin the
			// line with whatever follows and wait for the remainder. Every
			// re-extraction of a pushed-back line carries the old line as a
			// prefix, so a line that keeps regrowing without ever parsing is
			// genuinely malformed, not split.
			if p.lastFailed != "" && strings.HasPrefix(text, p.lastFailed) {
				p.failedCount++
			} else {
				p.failedCount = 1
			}
			p.lastFailed = text
			if p.failedCount >= maxReparseAttempts || len(text) > maxEventBytes {
				p.state = StateErrored
				return deltas, ErrMalformedEvent
			}
			rest := p.buf
			p.buf = make([]byte, 0, len(text)+len(rest))
			p.buf = append(p.buf, text...)
			p.buf = append(p.buf, rest...)
			p.state = StateAwaitingLine
			continue
		}
		p.lastFailed = ""
		p.failedCount = 0

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			deltas = append(deltas, chunk.Choices[0].Delta.Content)
		}
	}
}
