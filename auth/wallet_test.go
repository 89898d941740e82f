package auth

import (
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func signLogin(t *testing.T) (address, signature string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	address = strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	message := LoginMessage(address)
	digest := crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)))
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		t.Fatal(err)
	}
	return address, hex.EncodeToString(sig)
}

func TestAuthenticate(t *testing.T) {
	address, signature := signLogin(t)

	got, err := Authenticate(address, signature)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, address, got)

	// the claimed address may be checksummed, the result is lowercased
	got, err = Authenticate(strings.ToUpper(address[:2])+address[2:], signature)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, address, got)
}

func TestAuthenticateAnonymous(t *testing.T) {
	got, err := Authenticate("", "")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "", got)
}

func TestAuthenticateRejectsWrongAddress(t *testing.T) {
	_, signature := signLogin(t)
	other, _ := signLogin(t)
	_, err := Authenticate(other, signature)
	assert.Error(t, err)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	_, err := Authenticate("0xabc", "not-hex")
	assert.Error(t, err)
	_, err = Authenticate("0xabc", "0x0011")
	assert.Error(t, err)
}

func TestFromRequest(t *testing.T) {
	address, signature := signLogin(t)

	req := httptest.NewRequest("GET", "/room/alpha", nil)
	req.Header.Set(HeaderWalletAddress, address)
	req.Header.Set(HeaderWalletSignature, signature)
	got, err := FromRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, address, got)

	// query parameters are the fallback for the websocket handshake
	req = httptest.NewRequest("GET", "/board/alpha?address="+address+"&signature="+signature, nil)
	got, err = FromRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, address, got)
}
