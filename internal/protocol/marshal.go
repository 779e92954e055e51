package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// Pool of buffers shared by concurrent write pumps
var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Marshal encodes a message envelope as JSON. The returned slice is owned by
// the caller.
func Marshal(msg *Message) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}

	// Copy out of the pooled buffer and drop the encoder's newline
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return bytes.Clone(data), nil
}

// Unmarshal decodes a message envelope. The payload is left raw for
// Message.Decode.
func Unmarshal(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing message type", ErrMalformedMessage)
	}
	return &msg, nil
}
