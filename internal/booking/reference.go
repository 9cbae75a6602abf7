package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	referenceLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceDigits  = "0123456789"
)

// ReferencePattern matches every booking reference.
var ReferencePattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{4}$`)

// NewReference samples a reference of four letters followed by four digits.
func NewReference() (string, error) {
	buf := make([]byte, 8)
	for i := range buf {
		alphabet := referenceLetters
		if i >= 4 {
			alphabet = referenceDigits
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate booking reference: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
