package security

import "crypto/subtle"

// SecretGate guards administrator provisioning with a shared static secret.
type SecretGate struct {
	secret []byte
}

func NewSecretGate(secret string) *SecretGate {
	return &SecretGate{secret: []byte(secret)}
}

// Enabled reports whether a secret was configured. A disabled gate rejects everything.
func (g *SecretGate) Enabled() bool {
	return len(g.secret) > 0
}

// Verify compares provided with the configured secret in constant time.
func (g *SecretGate) Verify(provided string) bool {
	if !g.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), g.secret) == 1
}
