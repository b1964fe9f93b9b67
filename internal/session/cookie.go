package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// signer authenticates session ids carried in cookies as "<id>.<mac>".
type signer struct {
	key []byte
}

func newSigner(secret string) signer {
	return signer{key: []byte(secret)}
}

func (s signer) mac(id string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (s signer) sign(id string) string {
	return id + "." + s.mac(id)
}

// verify returns the session id when value carries a valid signature.
func (s signer) verify(value string) (string, bool) {
	id, mac, ok := strings.Cut(value, ".")
	if !ok || id == "" || mac == "" {
		return "", false
	}
	if !hmac.Equal([]byte(mac), []byte(s.mac(id))) {
		return "", false
	}
	return id, true
}
