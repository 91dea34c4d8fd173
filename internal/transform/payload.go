// internal/transform/payload.go
package transform

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

var dataURIPrefix = []byte("data:")

// DecodePayload resolves the two shapes the service returns image data
// in: raw binary, or a base64 string carrying a data-URI prefix such as
// "data:image/jpeg;base64,". Prefixed payloads are stripped and decoded;
// raw payloads pass through untouched.
func DecodePayload(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, dataURIPrefix) {
		return data, nil
	}

	idx := bytes.IndexByte(data, ',')
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI payload")
	}

	decoded, err := base64.StdEncoding.DecodeString(string(data[idx+1:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return decoded, nil
}
