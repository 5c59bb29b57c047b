package plumbing

import (
	"bytes"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/brickster241/GitSign/sshsig"
	"github.com/brickster241/GitSign/utils"
	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

var testWhen = time.Unix(1700000000, 0).In(time.FixedZone("", 3600))

func bob() types.Identity {
	return types.Identity{Name: "Bob", Email: "bob@example.com", When: testWhen}
}

func emptyTree(t *testing.T) [20]byte {
	t.Helper()
	sha, err := utils.ParseSHA(constants.EmptyTreeHex)
	require.NoError(t, err)
	return sha
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, reinit, err := InitRepository(t.TempDir(), InitOptions{User: bob()})
	require.NoError(t, err)
	require.False(t, reinit)
	return repo
}

// keySigner signs with a raw ssh.Signer.
type keySigner struct {
	ssh.Signer
}

func (k keySigner) Sign(namespace string, h sshsig.HashAlgorithm, payload []byte) (*sshsig.Signature, error) {
	return sshsig.Sign(k.Signer, namespace, h, payload)
}

func testSigner(t *testing.T) keySigner {
	t.Helper()
	signer, err := ssh.NewSignerFromKey(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize)))
	require.NoError(t, err)
	return keySigner{signer}
}

func timeZone(offset int) *time.Location {
	return time.FixedZone("", offset)
}

func emptyTreeWritten(t *testing.T, repo *Repository) [20]byte {
	t.Helper()
	sha, err := repo.WriteEmptyTree()
	require.NoError(t, err)
	return sha
}
