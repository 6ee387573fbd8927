package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"io"
)

// GenerateRandomString returns length URL-safe random characters.
func GenerateRandomString(length int) (string, error) {
	return randomString(length, rand.Reader)
}

func randomString(length int, rng io.Reader) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rng, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// newDRand returns an endless deterministic byte stream seeded with seed.
func newDRand(seed string) io.Reader {
	return &dRand{next: []byte(seed)}
}

type dRand struct {
	next []byte
	buf  []byte
}

func (d *dRand) Read(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		if len(d.buf) == 0 {
			sum := sha512.Sum512(d.next)
			d.next = sum[:sha512.Size/2]
			d.buf = sum[sha512.Size/2:]
		}
		c := copy(b[n:], d.buf)
		d.buf = d.buf[c:]
		n += c
	}
	return n, nil
}
