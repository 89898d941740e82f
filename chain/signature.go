package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverAddress recovers the wallet address that produced an EIP-191
// personal_sign signature over message. The returned address is lowercased,
// all address comparisons in this codebase are case-insensitive.
func RecoverAddress(message, signatureHex string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != 65 {
		return "", fmt.Errorf("malformed signature: %d bytes", len(sig))
	}
	if sig[64] >= 27 {
		sig = append(append([]byte{}, sig...), 0)[:65]
		sig[64] -= 27
	}
	digest := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return "", err
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}
