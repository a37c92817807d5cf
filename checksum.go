package ingestkit

import (
	"crypto/md5"  //nolint:gosec // MD5 is still used for ETag compatibility
	"crypto/sha1" //nolint:gosec // SHA1 is used for legacy compatibility
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gobeaver/ingestkit/stream"
	"github.com/zeebo/blake3"
)

// ChecksumAlgorithm names a hash algorithm used for document digests
type ChecksumAlgorithm string

const (
	ChecksumMD5    ChecksumAlgorithm = "md5"
	ChecksumSHA1   ChecksumAlgorithm = "sha1"
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	ChecksumCRC32  ChecksumAlgorithm = "crc32"
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
	ChecksumBLAKE3 ChecksumAlgorithm = "blake3"
)

// SupportedChecksums lists every algorithm NewHasher accepts.
func SupportedChecksums() []ChecksumAlgorithm {
	return []ChecksumAlgorithm{
		ChecksumMD5,
		ChecksumSHA1,
		ChecksumSHA256,
		ChecksumSHA512,
		ChecksumCRC32,
		ChecksumXXHash,
		ChecksumBLAKE3,
	}
}

// NewHasher creates a new hash.Hash for the given algorithm.
// Algorithm names are matched case-insensitively.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch ChecksumAlgorithm(strings.ToLower(string(algorithm))) {
	case ChecksumMD5:
		return md5.New(), nil //nolint:gosec // MD5 is still used for ETag compatibility
	case ChecksumSHA1:
		return sha1.New(), nil //nolint:gosec // SHA1 is used for legacy compatibility
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumSHA512:
		return sha512.New(), nil
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumXXHash:
		return xxhash.New(), nil
	case ChecksumBLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: checksum algorithm %q", ErrNotSupported, algorithm)
	}
}

// NewDigestReader wraps r in a stream.DigestReader hashing with algorithm.
func NewDigestReader(r io.Reader, algorithm ChecksumAlgorithm) (*stream.DigestReader, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return nil, err
	}
	return stream.NewDigestReaderWithHash(r, h), nil
}

// CalculateChecksum reads r to the end and returns its hex-encoded digest.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	d, err := NewDigestReader(r, algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(io.Discard, d); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return d.DigestHex(), nil
}

// VerifyChecksum reads r to the end and reports whether its digest equals
// expected, ignoring case.
func VerifyChecksum(r io.Reader, algorithm ChecksumAlgorithm, expected string) (bool, error) {
	actual, err := CalculateChecksum(r, algorithm)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}
