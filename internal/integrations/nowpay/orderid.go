package nowpay

import (
	"strconv"
	"strings"
	"time"
)

const orderIDPrefix = "tracking-"

// BuildOrderID produces the gateway order reference for a tracking ID:
// tracking-{trackingID}-{unixMillis}.
func BuildOrderID(trackingID string, now time.Time) string {
	return orderIDPrefix + trackingID + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// ExtractTrackingID reverses BuildOrderID: strip the prefix, then truncate at
// the last dash that is followed by an all-digit suffix. Tracking IDs contain
// dashes themselves, so only the trailing timestamp may be cut.
func ExtractTrackingID(orderID string) (string, bool) {
	rest, ok := strings.CutPrefix(orderID, orderIDPrefix)
	if !ok || rest == "" {
		return "", false
	}
	i := strings.LastIndex(rest, "-")
	if i > 0 && isDigits(rest[i+1:]) {
		return rest[:i], true
	}
	return rest, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
