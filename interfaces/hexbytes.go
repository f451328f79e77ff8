package interfaces

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexBytes is a byte string that encodes to JSON as lowercase hex without a
// 0x prefix. Decoding accepts an optional 0x prefix.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*b = decoded
	return nil
}
