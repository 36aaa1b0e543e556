package service

import "crypto/rand"

// codeAlphabet omits the visually ambiguous O, 0, 1 and I. Exactly 32
// characters, so a random byte maps uniformly with a mask.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeLength is the number of characters in a join code.
const codeLength = 6

// newJoinCode returns a random human-enterable session code.
func newJoinCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[b&31]
	}
	return string(buf)
}
