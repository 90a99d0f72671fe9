package daraja

import (
	"encoding/base64"
	"time"
)

const timestampLayout = "20060102150405"

// Timestamp formats t the way the gateway expects (YYYYMMDDHHmmss, local time).
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Password is base64(shortCode + passKey + timestamp), regenerated per request.
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}
