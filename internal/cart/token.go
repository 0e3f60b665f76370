package cart

import (
	"strings"

	"github.com/google/uuid"
)

// TokenLength is the length of tokens returned by GenerateToken.
const TokenLength = 32

// GenerateToken returns a fresh opaque token used to verify cart mutation requests.
func GenerateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
