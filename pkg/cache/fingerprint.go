package cache

import (
	"crypto/sha512"
	"encoding/base64"
	"hash"
	"io"

	"github.com/sidkik/hoist/pkg/errors"
)

// Fingerprint identifies the contents of a file.
type Fingerprint struct {
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}

// HashFunc creates the hash used to compute digests.
type HashFunc func() hash.Hash

// DefaultHash is the digest used when a Detector doesn't specify one.
var DefaultHash HashFunc = sha512.New

// FingerprintFile computes the fingerprint of the file at `path`.
func FingerprintFile(path string, newHash HashFunc) (Fingerprint, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Fingerprint{}, errors.WithContext(err, "open")
	}
	defer f.Close()

	return fingerprintReader(f, newHash)
}

func fingerprintReader(r io.Reader, newHash HashFunc) (Fingerprint, error) {
	if newHash == nil {
		newHash = DefaultHash
	}

	hasher := newHash()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return Fingerprint{}, errors.WithContext(err, "read")
	}

	return Fingerprint{
		Digest: base64.StdEncoding.EncodeToString(hasher.Sum(nil)),
		Size:   n,
	}, nil
}
