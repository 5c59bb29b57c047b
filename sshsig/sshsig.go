// Package sshsig produces detached SSH signatures in the OpenSSH "SSHSIG" format,
// the format git expects in the gpgsig header when gpg.format is ssh.
package sshsig

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	geErrors "github.com/brickster241/GitSign/utils/errors"
)

const (
	magicPreamble = "SSHSIG"
	sigVersion    = 1
	armorBegin    = "-----BEGIN SSH SIGNATURE-----"
	armorEnd      = "-----END SSH SIGNATURE-----"
	lineWidth     = 70
)

// HashAlgorithm names the digest applied to the message before signing.
type HashAlgorithm string

const (
	HashSHA256 HashAlgorithm = "sha256"
	HashSHA512 HashAlgorithm = "sha512"
)

// Valid reports whether h is supported.
func (h HashAlgorithm) Valid() bool {
	return h == HashSHA256 || h == HashSHA512
}

func (h HashAlgorithm) digest(message []byte) []byte {
	if h == HashSHA512 {
		sum := sha512.Sum512(message)
		return sum[:]
	}
	sum := sha256.Sum256(message)
	return sum[:]
}

// Signature is a decoded SSHSIG signature.
type Signature struct {
	PublicKey     ssh.PublicKey
	Namespace     string
	HashAlgorithm HashAlgorithm
	Signature     *ssh.Signature
}

// wireSignature is the SSHSIG blob after the magic preamble.
type wireSignature struct {
	Version       uint32
	PublicKey     []byte
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Signature     []byte
}

// signedData is what the key actually signs, after the magic preamble.
type signedData struct {
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Hash          []byte
}

func signedDataBlob(namespace string, h HashAlgorithm, message []byte) []byte {
	return append([]byte(magicPreamble), ssh.Marshal(signedData{
		Namespace:     namespace,
		HashAlgorithm: string(h),
		Hash:          h.digest(message),
	})...)
}

// Sign produces a detached signature over message. RSA keys sign with rsa-sha2-512.
func Sign(signer ssh.Signer, namespace string, h HashAlgorithm, message []byte) (*Signature, error) {
	if signer == nil {
		return nil, geErrors.E(geErrors.ErrSigningFailed, "sshsig sign", fmt.Errorf("no signer"))
	}
	if namespace == "" {
		return nil, geErrors.E(geErrors.ErrSigningFailed, "sshsig sign", fmt.Errorf("empty namespace"))
	}
	if !h.Valid() {
		return nil, geErrors.E(geErrors.ErrSigningFailed, "sshsig sign", fmt.Errorf("unsupported hash algorithm %q", h))
	}

	data := signedDataBlob(namespace, h, message)
	pub := signer.PublicKey()

	var (
		sig *ssh.Signature
		err error
	)
	if pub.Type() == ssh.KeyAlgoRSA {
		algSigner, ok := signer.(ssh.AlgorithmSigner)
		if !ok {
			return nil, geErrors.E(geErrors.ErrSigningFailed, "sshsig sign", fmt.Errorf("rsa signer cannot select rsa-sha2-512"))
		}
		sig, err = algSigner.SignWithAlgorithm(rand.Reader, data, ssh.KeyAlgoRSASHA512)
	} else {
		sig, err = signer.Sign(rand.Reader, data)
	}
	if err != nil {
		return nil, geErrors.E(geErrors.ErrSigningFailed, "sshsig sign "+pub.Type(), err)
	}

	return &Signature{
		PublicKey:     pub,
		Namespace:     namespace,
		HashAlgorithm: h,
		Signature:     sig,
	}, nil
}

// Blob returns the raw binary SSHSIG encoding.
func (s *Signature) Blob() []byte {
	return append([]byte(magicPreamble), ssh.Marshal(wireSignature{
		Version:       sigVersion,
		PublicKey:     s.PublicKey.Marshal(),
		Namespace:     s.Namespace,
		HashAlgorithm: string(s.HashAlgorithm),
		Signature:     ssh.Marshal(s.Signature),
	})...)
}

// Armor returns the PEM-style text form with LF line endings, including the final newline.
func (s *Signature) Armor() []byte {
	encoded := base64.StdEncoding.EncodeToString(s.Blob())

	var out bytes.Buffer
	out.WriteString(armorBegin + "\n")
	for len(encoded) > lineWidth {
		out.WriteString(encoded[:lineWidth] + "\n")
		encoded = encoded[lineWidth:]
	}
	out.WriteString(encoded + "\n")
	out.WriteString(armorEnd + "\n")
	return out.Bytes()
}

// Parse decodes a raw SSHSIG blob.
func Parse(blob []byte) (*Signature, error) {
	bad := func(format string, args ...interface{}) error {
		return geErrors.E(geErrors.ErrEncoding, "parse ssh signature", fmt.Errorf(format, args...))
	}

	if !bytes.HasPrefix(blob, []byte(magicPreamble)) {
		return nil, bad("missing %s preamble", magicPreamble)
	}
	var wire wireSignature
	if err := ssh.Unmarshal(blob[len(magicPreamble):], &wire); err != nil {
		return nil, bad("%v", err)
	}
	if wire.Version != sigVersion {
		return nil, bad("unsupported version %d", wire.Version)
	}

	pub, err := ssh.ParsePublicKey(wire.PublicKey)
	if err != nil {
		return nil, bad("public key: %v", err)
	}
	sig := new(ssh.Signature)
	if err := ssh.Unmarshal(wire.Signature, sig); err != nil {
		return nil, bad("signature: %v", err)
	}

	return &Signature{
		PublicKey:     pub,
		Namespace:     wire.Namespace,
		HashAlgorithm: HashAlgorithm(wire.HashAlgorithm),
		Signature:     sig,
	}, nil
}

// Unarmor decodes the PEM-style text form produced by Armor.
func Unarmor(armored []byte) (*Signature, error) {
	text := strings.TrimSpace(strings.ReplaceAll(string(armored), "\r\n", "\n"))
	if !strings.HasPrefix(text, armorBegin) || !strings.HasSuffix(text, armorEnd) {
		return nil, geErrors.E(geErrors.ErrEncoding, "unarmor ssh signature", fmt.Errorf("missing armor boundaries"))
	}
	body := strings.TrimSuffix(strings.TrimPrefix(text, armorBegin), armorEnd)
	blob, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(body), ""))
	if err != nil {
		return nil, geErrors.E(geErrors.ErrEncoding, "unarmor ssh signature", err)
	}
	return Parse(blob)
}

// Verify checks sig over message for the expected public key, namespace and hash.
func Verify(pub ssh.PublicKey, namespace string, h HashAlgorithm, message []byte, sig *Signature) error {
	fail := func(format string, args ...interface{}) error {
		return geErrors.E(geErrors.ErrSigningFailed, "verify ssh signature", fmt.Errorf(format, args...))
	}

	if sig.Namespace != namespace {
		return fail("namespace %q, want %q", sig.Namespace, namespace)
	}
	if sig.HashAlgorithm != h || !h.Valid() {
		return fail("hash algorithm %q, want %q", sig.HashAlgorithm, h)
	}
	if !bytes.Equal(sig.PublicKey.Marshal(), pub.Marshal()) {
		return fail("signed by a different key (%s)", ssh.FingerprintSHA256(sig.PublicKey))
	}
	if err := pub.Verify(signedDataBlob(namespace, h, message), sig.Signature); err != nil {
		return fail("%v", err)
	}
	return nil
}
