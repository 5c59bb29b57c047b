package plumbing

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/brickster241/GitSign/sshsig"
	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// SignatureHash is the digest commits are signed with.
const SignatureHash = sshsig.HashSHA256

// Signer produces a detached SSH signature over a payload.
type Signer interface {
	Sign(namespace string, h sshsig.HashAlgorithm, payload []byte) (*sshsig.Signature, error)
}

// SignCommit signs the canonical encoding of draft and returns the signed commit bytes along with
// the signed commit. draft itself is not modified.
func SignCommit(draft *types.Commit, signer Signer) ([]byte, *types.Commit, error) {
	if _, ok := draft.Header(constants.SignatureHeader); ok {
		return nil, nil, geErrors.E(geErrors.ErrEncoding, "sign commit", fmt.Errorf("commit already carries a %s header", constants.SignatureHeader))
	}

	payload, err := EncodeCommit(draft)
	if err != nil {
		return nil, nil, err
	}

	sig, err := signer.Sign(constants.SigNamespace, SignatureHash, payload)
	if err != nil {
		return nil, nil, geErrors.Wrap(err, "sign commit")
	}

	signed := draft.Clone()
	signed.ExtraHeaders = append(signed.ExtraHeaders, types.ExtraHeader{
		Key:   constants.SignatureHeader,
		Value: strings.TrimSpace(string(sig.Armor())),
	})

	data, err := EncodeCommit(signed)
	if err != nil {
		return nil, nil, err
	}
	return data, signed, nil
}

// ExtractSignature splits signed commit bytes into the armored signature and the payload it was computed over.
func ExtractSignature(data []byte) (string, []byte, error) {
	c, err := DecodeCommit(data)
	if err != nil {
		return "", nil, err
	}

	armor := ""
	found := false
	rest := c.ExtraHeaders[:0:0]
	for _, h := range c.ExtraHeaders {
		if h.Key == constants.SignatureHeader && !found {
			armor, found = h.Value, true
			continue
		}
		rest = append(rest, h)
	}
	if !found {
		return "", nil, geErrors.E(geErrors.ErrEncoding, "extract signature", fmt.Errorf("commit has no %s header", constants.SignatureHeader))
	}

	c.ExtraHeaders = rest
	payload, err := EncodeCommit(c)
	if err != nil {
		return "", nil, err
	}
	return armor, payload, nil
}

// VerifyCommitSignature checks that the signature embedded in data was made by pub over the rest of the commit.
func VerifyCommitSignature(data []byte, pub ssh.PublicKey) error {
	armor, payload, err := ExtractSignature(data)
	if err != nil {
		return err
	}
	sig, err := sshsig.Unarmor([]byte(armor))
	if err != nil {
		return err
	}
	return sshsig.Verify(pub, constants.SigNamespace, sig.HashAlgorithm, payload, sig)
}
