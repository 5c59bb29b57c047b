package plumbing

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickster241/GitSign/sshsig"
	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/types"
)

func draftCommit(t *testing.T) *types.Commit {
	return &types.Commit{Tree: emptyTree(t), Author: bob(), Committer: bob(), Message: "Initial commit"}
}

func TestSignCommit(t *testing.T) {
	signer := testSigner(t)
	draft := draftCommit(t)

	data, signed, err := SignCommit(draft, signer)
	require.NoError(t, err)
	assert.Empty(t, draft.ExtraHeaders, "draft must not be modified")

	armor, ok := signed.Header("gpgsig")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(armor, "-----BEGIN SSH SIGNATURE-----\n"))
	assert.True(t, strings.HasSuffix(armor, "-----END SSH SIGNATURE-----"))

	assert.Contains(t, string(data), "\ngpgsig -----BEGIN SSH SIGNATURE-----\n ")
	assert.True(t, strings.HasSuffix(string(data), " -----END SSH SIGNATURE-----\n\nInitial commit"))

	require.NoError(t, VerifyCommitSignature(data, signer.PublicKey()))

	gotArmor, payload, err := ExtractSignature(data)
	require.NoError(t, err)
	assert.Equal(t, armor, gotArmor)
	unsigned, err := EncodeCommit(draft)
	require.NoError(t, err)
	assert.Equal(t, unsigned, payload)

	sig, err := sshsig.Unarmor([]byte(armor))
	require.NoError(t, err)
	assert.Equal(t, "git", sig.Namespace)
	assert.Equal(t, SignatureHash, sig.HashAlgorithm)
}

func TestSignCommitIsDeterministic(t *testing.T) {
	a, _, err := SignCommit(draftCommit(t), testSigner(t))
	require.NoError(t, err)
	b, _, err := SignCommit(draftCommit(t), testSigner(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSignCommitRejectsSignedDraft(t *testing.T) {
	draft := draftCommit(t)
	draft.ExtraHeaders = []types.ExtraHeader{{Key: "gpgsig", Value: "x"}}
	_, _, err := SignCommit(draft, testSigner(t))
	assert.True(t, geErrors.Is(err, geErrors.ErrEncoding))
}

type failingSigner struct{}

func (failingSigner) Sign(string, sshsig.HashAlgorithm, []byte) (*sshsig.Signature, error) {
	return nil, geErrors.E(geErrors.ErrSigningFailed, "sign", errors.New("agent refused"))
}

func TestSignCommitSignerFailure(t *testing.T) {
	_, _, err := SignCommit(draftCommit(t), failingSigner{})
	assert.True(t, geErrors.Is(err, geErrors.ErrSigningFailed))
}

func TestVerifyCommitSignatureTampered(t *testing.T) {
	data, _, err := SignCommit(draftCommit(t), testSigner(t))
	require.NoError(t, err)

	tampered := []byte(strings.Replace(string(data), "Initial commit", "Initial commit!", 1))
	err = VerifyCommitSignature(tampered, testSigner(t).PublicKey())
	assert.True(t, geErrors.Is(err, geErrors.ErrSigningFailed))

	unsigned, err := EncodeCommit(draftCommit(t))
	require.NoError(t, err)
	err = VerifyCommitSignature(unsigned, testSigner(t).PublicKey())
	assert.True(t, geErrors.Is(err, geErrors.ErrEncoding))
}

func TestCommitBufferMatchesSignCommit(t *testing.T) {
	repo := newTestRepo(t)
	signer := testSigner(t)

	buffer, err := CommitCreateBuffer(bob(), bob(), "Initial commit", emptyTree(t), nil)
	require.NoError(t, err)
	unsigned, err := EncodeCommit(draftCommit(t))
	require.NoError(t, err)
	assert.Equal(t, unsigned, buffer)

	sig, err := signer.Sign("git", SignatureHash, buffer)
	require.NoError(t, err)
	sha, err := repo.CommitSigned(buffer, string(sig.Armor()), "")
	require.NoError(t, err)

	expected, _, err := SignCommit(draftCommit(t), signer)
	require.NoError(t, err)
	expectedSHA, err := HashObject(types.CommitObject, expected)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(expectedSHA[:]), hex.EncodeToString(sha[:]))

	objType, content, err := repo.ReadObject(hex.EncodeToString(sha[:]))
	require.NoError(t, err)
	assert.Equal(t, types.CommitObject, objType)
	require.NoError(t, VerifyCommitSignature(content, signer.PublicKey()))
}

func TestCommitSignedRejectsBadBuffer(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CommitSigned([]byte("tree abc"), "sig", "")
	assert.True(t, geErrors.Is(err, geErrors.ErrEncoding))

	_, err = CommitCreateBuffer(types.Identity{Name: "a<b"}, bob(), "m", emptyTree(t), nil)
	assert.True(t, geErrors.Is(err, geErrors.ErrEncoding))
}

func TestSignedCommitDecodesToSameRecord(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 30, 15, 987654321, time.FixedZone("CET", 3600))
	id := types.Identity{Name: "Bob", Email: "bob@example.com", When: CommitTime(now)}
	draft := &types.Commit{Tree: emptyTree(t), Author: id, Committer: id, Message: "Initial commit"}

	data, signed, err := SignCommit(draft, testSigner(t))
	require.NoError(t, err)

	decoded, err := DecodeCommit(data)
	require.NoError(t, err)
	assert.Equal(t, signed, decoded)
	assert.Equal(t, now.Unix(), decoded.Author.When.Unix())
}

func TestCommitTime(t *testing.T) {
	when := CommitTime(time.Date(2024, 3, 9, 14, 30, 15, 5, time.FixedZone("odd", -(3*3600 + 30*60 + 17))))
	assert.Zero(t, when.Nanosecond())
	_, offset := when.Zone()
	assert.Equal(t, -(3*3600 + 30*60), offset)

	id, err := ParseIdentity(FormatIdentity(types.Identity{Name: "Bob", Email: "bob@example.com", When: when}))
	require.NoError(t, err)
	assert.Equal(t, when, id.When)
}

func TestCommitSignedRejectsReservedField(t *testing.T) {
	repo := newTestRepo(t)
	buffer, err := CommitCreateBuffer(bob(), bob(), "Initial commit", emptyTree(t), nil)
	require.NoError(t, err)

	for _, field := range []string{"encoding", "author", "bad field"} {
		_, err := repo.CommitSigned(buffer, "sig", field)
		assert.True(t, geErrors.Is(err, geErrors.ErrEncoding), field)
	}
}
