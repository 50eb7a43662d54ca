// Package upload reads request bodies under a hard byte ceiling. Bodies are
// consumed chunk by chunk so a hostile client cannot force the server to
// buffer an unbounded amount before the total size is known.
package upload

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/ecosort/waste-api/internal/apperr"
	"github.com/ecosort/waste-api/internal/config"
)

// ReadAll assembles the stream into memory, failing as soon as the running
// total exceeds maxBytes. The remainder of an oversized stream is not
// drained. A stream that ends with zero bytes read is rejected outright.
// Memory use never exceeds maxBytes plus one chunk.
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, config.ReadChunkSize)

	var total int64
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > maxBytes {
				return nil, apperr.E(apperr.PayloadTooLarge,
					errors.Errorf("upload exceeded %d bytes", maxBytes))
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// Not a client-shaped failure; the boundary reduces it to the
			// generic message.
			return nil, errors.Wrap(err, "read upload")
		}
	}

	if total == 0 {
		return nil, apperr.E(apperr.EmptyPayload, nil)
	}
	return buf.Bytes(), nil
}
