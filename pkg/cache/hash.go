package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"math"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash returns the hex SHA-256 of data. Archives are keyed by the hash of
// their raw bytes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Digest builds a SHA-256 content hash of geometry field by field. Floats
// are hashed by their IEEE-754 bits, so NaNs and infinities are hashed like
// any other value, and 0 and -0 differ. Strings and slices are length
// prefixed, so adjacent fields cannot run into each other.
type Digest struct {
	h   hash.Hash
	buf []byte
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

// Text adds s.
func (d *Digest) Text(s string) *Digest {
	d.Int(len(s))
	d.h.Write([]byte(s))
	return d
}

// Int adds v.
func (d *Digest) Int(v int) *Digest {
	d.buf = binary.LittleEndian.AppendUint64(d.buf[:0], uint64(int64(v)))
	d.h.Write(d.buf)
	return d
}

// Float32s adds a float buffer such as positions, colors or UVs.
func (d *Digest) Float32s(fs []float32) *Digest {
	d.Int(len(fs))
	d.buf = d.buf[:0]
	for _, f := range fs {
		d.buf = binary.LittleEndian.AppendUint32(d.buf, math.Float32bits(f))
	}
	d.h.Write(d.buf)
	return d
}

// Sum returns the hex digest. The digest stays usable afterwards.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
