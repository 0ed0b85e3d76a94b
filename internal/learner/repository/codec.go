package repository

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Storage keys inside one client scope.
const (
	SessionKey     = "radlearn_session"
	UserDBKey      = "radlearn_user_db"
	ActivityLogKey = "radlearn_activity_log"
)

// encodeOpaque serialises v as base64(JSON). This only keeps values from
// being casually readable in storage; it is not encryption and gives no
// confidentiality or integrity.
func encodeOpaque(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeOpaque(s string, v interface{}) error {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// LookupKey is the one-way registry key for an email. Emails are compared
// case-insensitively.
func LookupKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
