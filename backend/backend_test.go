package backend

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/brickster241/GitSign/plumbing"
	"github.com/brickster241/GitSign/sshkey"
	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

var fixedNow = time.Unix(1700000000, 0).In(time.FixedZone("", -5*3600))

func testKey(t *testing.T) *sshkey.PrivateKey {
	t.Helper()
	block, err := ssh.MarshalPrivateKey(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{1}, ed25519.SeedSize)), "bob@example.com")
	require.NoError(t, err)
	key, err := sshkey.ParsePrivateKey(pem.EncodeToMemory(block))
	require.NoError(t, err)
	return key
}

func testOptions(dir string) Options {
	return Options{
		Dir:      dir,
		Branch:   "main",
		Message:  "Initial commit",
		Identity: types.Identity{Name: "Bob", Email: "bob@example.com"},
		Now:      func() time.Time { return fixedNow },
	}
}

type repoBackend interface {
	Backend
	Repository() *plumbing.Repository
}

func checkSignedRootCommit(t *testing.T, repo *plumbing.Repository, commit [20]byte, key *sshkey.PrivateKey) {
	t.Helper()

	objType, data, err := repo.ReadObject(hex.EncodeToString(commit[:]))
	require.NoError(t, err)
	require.Equal(t, types.CommitObject, objType)
	require.NoError(t, plumbing.VerifyCommitSignature(data, key.PublicKey()))

	c, err := plumbing.DecodeCommit(data)
	require.NoError(t, err)
	assert.Equal(t, constants.EmptyTreeHex, hex.EncodeToString(c.Tree[:]))
	assert.Empty(t, c.Parents)
	assert.Equal(t, "Bob", c.Author.Name)
	assert.Equal(t, "bob@example.com", c.Committer.Email)
	assert.Equal(t, fixedNow.Unix(), c.Author.When.Unix())
	assert.Equal(t, "Initial commit", c.Message)
	_, ok := c.Header(constants.SignatureHeader)
	assert.True(t, ok)

	head, ok, err := repo.ResolveRef(constants.HeadRef)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, commit, head)

	tree, err := repo.ReadTree(constants.EmptyTreeHex)
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestBackendsEndToEnd(t *testing.T) {
	key := testKey(t)

	for _, newBackend := range []func(Options) repoBackend{
		func(o Options) repoBackend { return NewIndexBackend(o) },
		func(o Options) repoBackend { return NewDirectObjectBackend(o) },
	} {
		b := newBackend(testOptions(t.TempDir()))
		t.Run(b.Name(), func(t *testing.T) {
			commit, err := Run(b, key)
			require.NoError(t, err)
			checkSignedRootCommit(t, b.Repository(), commit, key)
		})
	}
}

func TestBackendsAgree(t *testing.T) {
	key := testKey(t)

	indexCommit, err := Run(NewIndexBackend(testOptions(t.TempDir())), key)
	require.NoError(t, err)
	directCommit, err := Run(NewDirectObjectBackend(testOptions(t.TempDir())), key)
	require.NoError(t, err)

	assert.Equal(t, indexCommit, directCommit)
}

func TestDirectBackendIsDeterministic(t *testing.T) {
	key := testKey(t)

	first, err := Run(NewDirectObjectBackend(testOptions(t.TempDir())), key)
	require.NoError(t, err)
	second, err := Run(NewDirectObjectBackend(testOptions(t.TempDir())), key)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDirectBackendRefusesToOverwrite(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	first, err := Run(NewDirectObjectBackend(testOptions(dir)), key)
	require.NoError(t, err)

	opts := testOptions(dir)
	opts.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	again := NewDirectObjectBackend(opts)
	_, err = Run(again, key)
	require.Error(t, err)
	assert.True(t, geErrors.Is(err, geErrors.ErrRefConflict))

	head, _, err := again.Repository().ResolveRef("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, first, head, "existing branch must be untouched")

	entries, err := again.Repository().ReadReflog(constants.HeadRef)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "commit (initial): Initial commit", entries[0].Message)
}

func TestDirectBackendReflogs(t *testing.T) {
	b := NewDirectObjectBackend(testOptions(t.TempDir()))
	commit, err := Run(b, testKey(t))
	require.NoError(t, err)

	for _, ref := range []string{constants.HeadRef, "refs/heads/main"} {
		entries, err := b.Repository().ReadReflog(ref)
		require.NoError(t, err)
		require.Len(t, entries, 1, ref)
		assert.Equal(t, [20]byte{}, entries[0].Old)
		assert.Equal(t, commit, entries[0].New)
		assert.Equal(t, "commit (initial): Initial commit", entries[0].Message)
	}
}

func TestIndexBackendOverwritesBranch(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	_, err := Run(NewIndexBackend(testOptions(dir)), key)
	require.NoError(t, err)

	opts := testOptions(dir)
	opts.Message = "Second bootstrap"
	b := NewIndexBackend(opts)
	second, err := Run(b, key)
	require.NoError(t, err)

	head, _, err := b.Repository().ResolveRef("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, second, head)

	entries, err := b.Repository().ReadReflog("refs/heads/main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "branch: Created from "+hex.EncodeToString(second[:]), entries[1].Message)

	_, err = os.Stat(filepath.Join(dir, ".git", "index"))
	assert.NoError(t, err)
}

func TestIndexBackendNeedsIdentity(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.Identity = types.Identity{}
	_, err := Run(NewIndexBackend(opts), testKey(t))
	assert.True(t, geErrors.Is(err, geErrors.ErrInvalidConfiguration))
}

func TestStepsBeforeInit(t *testing.T) {
	for _, b := range []Backend{
		NewIndexBackend(testOptions(t.TempDir())),
		NewDirectObjectBackend(testOptions(t.TempDir())),
	} {
		_, err := b.WriteEmptyTree()
		assert.True(t, geErrors.Is(err, geErrors.ErrIO), b.Name())
		_, err = b.PersistSignedCommit([20]byte{}, testKey(t))
		assert.True(t, geErrors.Is(err, geErrors.ErrIO), b.Name())
		assert.True(t, geErrors.Is(b.BindReference([20]byte{}), geErrors.ErrIO), b.Name())
	}
}

func TestBindReferenceRequiresCommit(t *testing.T) {
	for _, b := range []repoBackend{
		NewIndexBackend(testOptions(t.TempDir())),
		NewDirectObjectBackend(testOptions(t.TempDir())),
	} {
		require.NoError(t, b.InitRepo())
		tree, err := b.WriteEmptyTree()
		require.NoError(t, err)
		assert.True(t, b.Repository().HasObject(tree), b.Name())

		err = b.BindReference([20]byte{9})
		assert.True(t, geErrors.Is(err, geErrors.ErrIO), b.Name())
		_, ok, err := b.Repository().ResolveRef("refs/heads/main")
		require.NoError(t, err)
		assert.False(t, ok, b.Name())
	}
}

func TestEncryptedKeyCannotSign(t *testing.T) {
	block, err := ssh.MarshalPrivateKeyWithPassphrase(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{1}, ed25519.SeedSize)), "", []byte("pw"))
	require.NoError(t, err)
	locked, err := sshkey.ParsePrivateKey(pem.EncodeToMemory(block))
	require.NoError(t, err)

	_, err = Run(NewDirectObjectBackend(testOptions(t.TempDir())), locked)
	assert.True(t, geErrors.Is(err, geErrors.ErrSigningFailed))
}

func TestPrepareDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, PrepareDir(dir, false))

	stale := filepath.Join(dir, "stale")
	require.NoError(t, os.WriteFile(stale, []byte("x"), constants.DefaultFilePerm))

	require.NoError(t, PrepareDir(dir, false))
	_, err := os.Stat(stale)
	assert.NoError(t, err)

	require.NoError(t, PrepareDir(dir, true))
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestDefaults(t *testing.T) {
	b := NewDirectObjectBackend(Options{Dir: "x"})
	assert.Equal(t, constants.DefaultBranch, b.opts.Branch)
	assert.Equal(t, "Initial commit", b.opts.Message)
	assert.NotNil(t, b.opts.Now)
	assert.NotNil(t, b.opts.Logger)
	assert.Equal(t, "x", b.Dir())
	assert.Equal(t, "DIRECT", b.Name())
	assert.Equal(t, "INDEX", NewIndexBackend(Options{}).Name())
}

func TestIdentityMatchesDecodedCommit(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 30, 15, 987654321, time.Local)
	opts := testOptions(t.TempDir())
	opts.Now = func() time.Time { return now }

	direct := NewDirectObjectBackend(opts)
	commit, err := Run(direct, testKey(t))
	require.NoError(t, err)

	c, err := direct.Repository().ReadCommit(commit)
	require.NoError(t, err)
	assert.Equal(t, direct.committer, c.Committer)
	assert.Equal(t, opts.withDefaults().identity(), c.Author)

	opts.Dir = t.TempDir()
	index := NewIndexBackend(opts)
	commit, err = Run(index, testKey(t))
	require.NoError(t, err)

	c, err = index.Repository().ReadCommit(commit)
	require.NoError(t, err)
	author, err := index.Repository().Signature(now)
	require.NoError(t, err)
	assert.Equal(t, author, c.Author)
}
