// Package singer reads the Singer message stream and drives the purchase
// workflow from it.
package singer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MessageType is the "type" of a Singer message
type MessageType string

const (
	TypeSchema          MessageType = "SCHEMA"
	TypeRecord          MessageType = "RECORD"
	TypeState           MessageType = "STATE"
	TypeActivateVersion MessageType = "ACTIVATE_VERSION"
)

// Message is one line of the Singer stream
type Message struct {
	Type          MessageType     `json:"type"`
	Stream        string          `json:"stream,omitempty"`
	Record        map[string]any  `json:"record,omitempty"`
	Schema        json.RawMessage `json:"schema,omitempty"`
	KeyProperties []string        `json:"key_properties,omitempty"`
	Value         json.RawMessage `json:"value,omitempty"`
}

// Reader decodes Singer messages, one JSON object per line
type Reader struct {
	r    *bufio.Reader
	line int
}

// NewReader creates a reader over r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next message, or io.EOF at the end of the stream. Blank
// lines are skipped. Numbers in records are kept as json.Number.
func (r *Reader) Next() (*Message, error) {
	for {
		data, err := r.r.ReadBytes('\n')
		if len(data) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading line %d: %w", r.line+1, err)
		}
		r.line++

		data = bytes.TrimSpace(data)
		if len(data) == 0 {
			if err != nil {
				return nil, io.EOF
			}
			continue
		}

		msg, decodeErr := decode(data)
		if decodeErr != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, decodeErr)
		}
		return msg, nil
	}
}

func decode(data []byte) (*Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("message has no type")
	}
	if msg.Type == TypeRecord && msg.Stream == "" {
		return nil, errors.New("record message has no stream")
	}
	return &msg, nil
}
