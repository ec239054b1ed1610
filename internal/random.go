package internal

import (
	"crypto/rand"
	"strconv"
	"time"
)

const deviceIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const deviceIDSuffixLen = 9

// NewDeviceID generates a stable-format device identifier: a millisecond
// timestamp plus a random alphanumeric suffix. Collisions are negligible
// for distinguishing browsers/devices, which is all this is for — it is
// not a credential.
func NewDeviceID() string {
	return "device_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + randomSuffix(deviceIDSuffixLen)
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	// crypto/rand never fails on supported platforms; fall back to a
	// constant suffix rather than propagate an error nobody can act on.
	if _, err := rand.Read(buf); err != nil {
		for i := range buf {
			buf[i] = deviceIDAlphabet[0]
		}
		return string(buf)
	}
	for i, b := range buf {
		buf[i] = deviceIDAlphabet[int(b)%len(deviceIDAlphabet)]
	}
	return string(buf)
}
