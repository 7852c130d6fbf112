package crypto

import "encoding/hex"

// Hex returns lowercase hex without separators, used for certificate display.
func Hex(b []byte) string { return hex.EncodeToString(b) }
