// Package encoding pools the buffers used to serialize realtime envelopes and
// other hot JSON paths.
package encoding

import (
	"bytes"
	"encoding/json"
	"sync"
)

// maxPooledCap keeps outlier buffers out of the pool
const maxPooledCap = 64 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves an empty buffer from the pool
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool unless it grew past 64KB
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledCap {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// Marshal encodes v like json.Marshal, without the trailing newline an
// Encoder writes. HTML escaping is off; payloads are never embedded in pages.
func Marshal(v interface{}) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}
