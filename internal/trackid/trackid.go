// Package trackid generates and parses the human-readable shipment IDs of the
// form DFS-YYYYMMDDHHmm-XXXXXX.
package trackid

import (
	"crypto/rand"
	"regexp"
	"time"
)

const (
	prefix     = "DFS"
	stampLayout = "200601021504"
	suffixLen  = 6
	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var stampRe = regexp.MustCompile(`^DFS-(\d{12})-`)

// New produces DFS-{YYYYMMDDHHmm}-{RAND6}. The stamp is the local wall clock
// at minute resolution; the suffix is 6 random chars from [0-9A-Z]. Uniqueness
// is probabilistic only; the storage layer's unique constraint is the guard.
func New(now time.Time) string {
	buf := make([]byte, suffixLen)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return prefix + "-" + now.Format(stampLayout) + "-" + string(buf)
}

// StampTime recovers the creation time embedded in a tracking ID. Used as the
// created-at fallback when the record predates the created_at column.
func StampTime(id string) (time.Time, bool) {
	m := stampRe.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(stampLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
