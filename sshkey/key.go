// Package sshkey loads OpenSSH private keys from the user's key directory and unlocks
// passphrase-protected ones through a retrying prompt loop.
package sshkey

import (
	"crypto/x509"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/brickster241/GitSign/sshsig"
	geErrors "github.com/brickster241/GitSign/utils/errors"
)

// Algorithm is the key family.
type Algorithm string

const (
	Ed25519 Algorithm = "ed25519"
	ECDSA   Algorithm = "ecdsa"
	RSA     Algorithm = "rsa"
)

// algorithmOf maps an SSH public key type onto a supported family.
func algorithmOf(pub ssh.PublicKey) (Algorithm, error) {
	switch pub.Type() {
	case ssh.KeyAlgoED25519:
		return Ed25519, nil
	case ssh.KeyAlgoECDSA256, ssh.KeyAlgoECDSA384, ssh.KeyAlgoECDSA521:
		return ECDSA, nil
	case ssh.KeyAlgoRSA:
		return RSA, nil
	}
	return "", fmt.Errorf("unsupported key type %s", pub.Type())
}

// PrivateKey is a parsed private key. An encrypted key knows its public half
// but cannot sign until Decrypt returns an unlocked copy.
type PrivateKey struct {
	Path      string
	Algorithm Algorithm

	pemBytes []byte
	public   ssh.PublicKey
	signer   ssh.Signer
}

// ParsePrivateKey parses OpenSSH (or PEM) private key bytes.
func ParsePrivateKey(pemBytes []byte) (*PrivateKey, error) {
	raw, err := ssh.ParseRawPrivateKey(pemBytes)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if !errors.As(err, &missing) {
			return nil, geErrors.E(geErrors.ErrKeyParse, "parse private key", err)
		}

		key := &PrivateKey{pemBytes: pemBytes, public: missing.PublicKey}
		if missing.PublicKey != nil {
			alg, err := algorithmOf(missing.PublicKey)
			if err != nil {
				return nil, geErrors.E(geErrors.ErrKeyParse, "parse private key", err)
			}
			key.Algorithm = alg
		}
		return key, nil
	}

	return newUnlockedKey(pemBytes, raw)
}

func newUnlockedKey(pemBytes []byte, raw interface{}) (*PrivateKey, error) {
	signer, err := ssh.NewSignerFromKey(raw)
	if err != nil {
		return nil, geErrors.E(geErrors.ErrKeyParse, "parse private key", err)
	}
	alg, err := algorithmOf(signer.PublicKey())
	if err != nil {
		return nil, geErrors.E(geErrors.ErrKeyParse, "parse private key", err)
	}
	return &PrivateKey{
		Algorithm: alg,
		pemBytes:  pemBytes,
		public:    signer.PublicKey(),
		signer:    signer,
	}, nil
}

// IsEncrypted reports whether the key still needs a passphrase.
func (k *PrivateKey) IsEncrypted() bool {
	return k.signer == nil
}

// PublicKey returns the public half. It may be nil for encrypted legacy PEM keys.
func (k *PrivateKey) PublicKey() ssh.PublicKey {
	return k.public
}

// Signer exposes the underlying ssh.Signer, nil while encrypted.
func (k *PrivateKey) Signer() ssh.Signer {
	return k.signer
}

// Decrypt returns an unlocked copy of k. A wrong password yields ErrDecryptionFailed.
func (k *PrivateKey) Decrypt(password string) (*PrivateKey, error) {
	if !k.IsEncrypted() {
		return k, nil
	}

	raw, err := ssh.ParseRawPrivateKeyWithPassphrase(k.pemBytes, []byte(password))
	if err != nil {
		if errors.Is(err, x509.IncorrectPasswordError) {
			return nil, geErrors.EPath(geErrors.ErrDecryptionFailed, "decrypt private key", k.Path, nil)
		}
		return nil, geErrors.EPath(geErrors.ErrKeyParse, "decrypt private key", k.Path, err)
	}

	unlocked, err := newUnlockedKey(k.pemBytes, raw)
	if err != nil {
		return nil, err
	}
	unlocked.Path = k.Path
	return unlocked, nil
}

// Sign produces a detached SSH signature over payload.
func (k *PrivateKey) Sign(namespace string, h sshsig.HashAlgorithm, payload []byte) (*sshsig.Signature, error) {
	if k.IsEncrypted() {
		return nil, geErrors.EPath(geErrors.ErrSigningFailed, "sign", k.Path, fmt.Errorf("key is still encrypted"))
	}
	return sshsig.Sign(k.signer, namespace, h, payload)
}
