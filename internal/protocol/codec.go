// Package protocol defines the control channel message contract.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLineBytes bounds a single wire line. Messages are sub-kilobyte in
// practice; a full layout is the largest payload by far.
const MaxLineBytes = 64 * 1024

// ErrMalformed indicates a line that is not a valid message object.
var ErrMalformed = errors.New("malformed message line")

// ErrLineTooLong indicates a line that exceeded MaxLineBytes without a newline.
var ErrLineTooLong = errors.New("message line too long")

// Encode renders a message as one line of JSON terminated by a newline.
func Encode(m Message) ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("%w: empty type", ErrMalformed)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a single wire line into a message.
func Decode(line []byte) (Message, error) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return Message{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	var m Message
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return m, nil
}

// LineBuffer accumulates stream bytes and yields complete lines. It lets a
// read loop interleave short read deadlines with framing: partial lines stay
// buffered across deadline expirations.
type LineBuffer struct {
	buf []byte
}

// Append adds freshly read bytes to the buffer.
func (b *LineBuffer) Append(data []byte) error {
	b.buf = append(b.buf, data...)
	if len(b.buf) > MaxLineBytes && !bytes.ContainsRune(b.buf, '\n') {
		b.buf = nil
		return ErrLineTooLong
	}
	return nil
}

// Next pops the next complete line, without its newline. ok is false when no
// complete line is buffered yet.
func (b *LineBuffer) Next() (line []byte, ok bool) {
	idx := bytes.IndexByte(b.buf, '\n')
	if idx < 0 {
		return nil, false
	}
	line = b.buf[:idx]
	b.buf = append([]byte(nil), b.buf[idx+1:]...)
	return line, true
}

// Writer serializes messages onto a stream, one line each.
type Writer struct {
	w io.Writer
}

// NewWriter wraps a stream for line-message writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes and writes a single message line.
func (w *Writer) Write(m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.w.Write(data)
	return err
}
