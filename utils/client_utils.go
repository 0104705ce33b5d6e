package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const clientIDBytes = 32

// GenerateClientID creates a URL-safe random id for a browser client cookie.
func GenerateClientID() string {
	b := make([]byte, clientIDBytes)
	if _, err := rand.Read(b); err != nil {
		log.Error().Err(err).Msg("Failed to generate random bytes for client id")
		return "fallback_client_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// IsValidClientID accepts ids GenerateClientID could have produced.
func IsValidClientID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
