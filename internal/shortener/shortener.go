package shortener

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
)

// Base62 character set (0-9, a-z, A-Z) - 62 characters total
// Using base62 instead of base64 avoids special characters that might cause URL issues
const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MinCodeLength is the minimum length of a generated short code.
const MinCodeLength = 5

// seedPrefixLen is how many leading hex characters of a record identifier
// feed the deterministic encoding.
const seedPrefixLen = 8

// Encode converts a non-negative number to a base62 string, left-padded
// with '0' to MinCodeLength. Zero encodes to "00000".
func Encode(num uint64) string {
	var sb []byte
	for num > 0 {
		sb = append([]byte{base62Chars[num%62]}, sb...)
		num /= 62
	}

	if len(sb) < MinCodeLength {
		return strings.Repeat(string(base62Chars[0]), MinCodeLength-len(sb)) + string(sb)
	}
	return string(sb)
}

// GenerateFromSeed derives a short code deterministically from a record
// identifier and an optional salt. The leading 8 hex characters of the seed
// are interpreted as a base-16 integer, the salt is added, and the result is
// base62-encoded. The same (seed, salt) pair always yields the same code.
func GenerateFromSeed(seed string, salt int) string {
	prefix := seed
	if len(prefix) > seedPrefixLen {
		prefix = prefix[:seedPrefixLen]
	}

	num, err := strconv.ParseUint(prefix, 16, 64)
	if err != nil {
		num = 0
	}

	return Encode(num + uint64(salt))
}

// RandomCode produces length independently and uniformly sampled base62
// symbols. Uses crypto/rand for unpredictability; repetition across calls is
// possible and left to the collision resolver.
func RandomCode(length int) string {
	result := make([]byte, length)

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			// Fallback if crypto/rand fails; should rarely happen in practice
			num = big.NewInt(int64(i % len(base62Chars)))
		}

		result[i] = base62Chars[num.Int64()]
	}

	return string(result)
}

// IsValid checks if a short code contains only valid base62 characters.
func IsValid(code string) bool {
	if len(code) == 0 {
		return false
	}

	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(base62Chars, rune(code[i])) {
			return false
		}
	}

	return true
}
