package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a digest function usable by Hasher.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	SHA384     Algorithm = "sha384"
	SHA512     Algorithm = "sha512"
	SHA512_256 Algorithm = "sha512/256"
	SHA3_256   Algorithm = "sha3-256"
	SHA3_512   Algorithm = "sha3-512"
	BLAKE2b256 Algorithm = "blake2b-256"
	BLAKE2b512 Algorithm = "blake2b-512"
	BLAKE2s256 Algorithm = "blake2s-256"
)

// Only collision-resistant digests are registered; md5 and sha1 are
// deliberately absent.
var algorithms = map[Algorithm]func() hash.Hash{
	SHA256:     sha256.New,
	SHA384:     sha512.New384,
	SHA512:     sha512.New,
	SHA512_256: sha512.New512_256,
	SHA3_256:   sha3.New256,
	SHA3_512:   sha3.New512,
	BLAKE2b256: func() hash.Hash { h, _ := blake2b.New256(nil); return h },
	BLAKE2b512: func() hash.Hash { h, _ := blake2b.New512(nil); return h },
	BLAKE2s256: func() hash.Hash { h, _ := blake2s.New256(nil); return h },
}

// Supported reports whether a is a registered algorithm.
func Supported(a Algorithm) bool {
	_, ok := algorithms[a]
	return ok
}

// Algorithms returns the registered algorithm names in sorted order.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for a := range algorithms {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}
