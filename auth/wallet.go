package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tcriess/lightspeed-board/chain"
	"github.com/tcriess/lightspeed-board/globals"
)

// Wallet sign-in: the client signs a fixed login message containing its
// address and sends address plus signature along with every request. There
// is no session state, the signature is verified per request.

const loginMessageTemplate = "lightspeed-board login: %s"

// Header names carrying the wallet credentials; the websocket handler
// accepts the same pair as query parameters.
const (
	HeaderWalletAddress   = "X-Wallet-Address"
	HeaderWalletSignature = "X-Wallet-Signature"
)

// LoginMessage returns the exact message a wallet has to sign for the given
// address.
func LoginMessage(address string) string {
	return fmt.Sprintf(loginMessageTemplate, strings.ToLower(address))
}

// Authenticate verifies the signature over the login message and returns the
// lowercased wallet address. Anonymous callers (no credentials) yield an
// empty address and no error.
func Authenticate(address, signature string) (string, error) {
	if address == "" || signature == "" {
		return "", nil
	}
	want := strings.ToLower(address)
	recovered, err := chain.RecoverAddress(LoginMessage(address), signature)
	if err != nil {
		return "", err
	}
	if recovered != want {
		globals.AppLogger.Debug("signature mismatch", "claimed", want, "recovered", recovered)
		return "", fmt.Errorf("signature does not match address")
	}
	return recovered, nil
}

// FromRequest authenticates the wallet credentials of an HTTP request.
func FromRequest(r *http.Request) (string, error) {
	address := r.Header.Get(HeaderWalletAddress)
	signature := r.Header.Get(HeaderWalletSignature)
	if address == "" {
		vals := r.URL.Query()
		address = vals.Get("address")
		signature = vals.Get("signature")
	}
	return Authenticate(address, signature)
}
