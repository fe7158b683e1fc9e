package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// OrderNumberPrefix is prepended to every generated order number.
const OrderNumberPrefix = "PFW"

// GenerateOrderNumber returns a human-readable order number such as
// PFW-A1B2C3: the prefix plus three random bytes in upper-case hex.
// Uniqueness is enforced by the orders index; callers regenerate on
// collision.
func GenerateOrderNumber() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return fmt.Sprintf("%s-%s", OrderNumberPrefix, strings.ToUpper(hex.EncodeToString(buf))), nil
}
