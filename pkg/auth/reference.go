package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewOrderReference returns "ORD" + YYYYmmddHHMMSS + 8 lowercase hex chars.
func NewOrderReference(now time.Time) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("auth: read random: %v", err))
	}
	return "ORD" + now.UTC().Format("20060102150405") + hex.EncodeToString(b)
}
