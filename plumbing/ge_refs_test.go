package plumbing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
)

func TestValidateRefName(t *testing.T) {
	for _, name := range []string{"refs/heads/main", "refs/heads/feature/x-1", "refs/tags/v1.0"} {
		assert.NoError(t, ValidateRefName(name), name)
	}
	for _, name := range []string{
		"", "@", "/refs/heads/x", "refs/heads/x/", "refs/heads/x.", "refs/heads/a..b",
		"refs/heads/a//b", "refs/heads/a@{1}", "refs/heads/a b", "refs/heads/a~1",
		"refs/heads/.hidden", "refs/heads/x.lock", "refs/heads/a:b",
	} {
		assert.Error(t, ValidateRefName(name), name)
	}
}

func TestReadHEAD(t *testing.T) {
	repo := newTestRepo(t)

	head, err := repo.ReadHEAD()
	require.NoError(t, err)
	assert.False(t, head.Detached)
	assert.Equal(t, "refs/heads/main", head.Ref)

	_, ok, err := repo.ResolveRef(constants.HeadRef)
	require.NoError(t, err)
	assert.False(t, ok, "unborn branch")

	sha := emptyTreeWritten(t, repo)
	require.NoError(t, os.WriteFile(filepath.Join(repo.GitDir, "HEAD"), []byte(constants.EmptyTreeHex+"\n"), constants.DefaultFilePerm))
	head, err = repo.ReadHEAD()
	require.NoError(t, err)
	assert.True(t, head.Detached)
	assert.Equal(t, sha, head.SHA)
}

func TestEditReferenceMustNotExist(t *testing.T) {
	repo := newTestRepo(t)
	first := [20]byte{1}
	second := [20]byte{2}

	edit := RefEdit{Name: "HEAD", Deref: true, New: first, Expected: MustNotExist}
	require.NoError(t, repo.EditReference(edit))

	sha, ok, err := repo.ResolveRef("refs/heads/main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, sha)

	edit.New = second
	err = repo.EditReference(edit)
	assert.True(t, geErrors.Is(err, geErrors.ErrRefConflict))

	sha, _, err = repo.ResolveRef("HEAD")
	require.NoError(t, err)
	assert.Equal(t, first, sha, "target must be unchanged")

	_, err = os.Stat(filepath.Join(repo.GitDir, "refs", "heads", "main.lock"))
	assert.True(t, os.IsNotExist(err), "lock file must be released")

	// HEAD is still symbolic
	head, err := repo.ReadHEAD()
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", head.Ref)
}

func TestEditReferenceMustExistAndMatch(t *testing.T) {
	repo := newTestRepo(t)
	first := [20]byte{1}
	second := [20]byte{2}

	err := repo.EditReference(RefEdit{Name: "refs/heads/main", New: first, Expected: MustExistAndMatch(second)})
	assert.True(t, geErrors.Is(err, geErrors.ErrRefConflict))

	require.NoError(t, repo.EditReference(RefEdit{Name: "refs/heads/main", New: first, Expected: Any}))

	err = repo.EditReference(RefEdit{Name: "refs/heads/main", New: second, Expected: MustExistAndMatch(second)})
	assert.True(t, geErrors.Is(err, geErrors.ErrRefConflict))

	require.NoError(t, repo.EditReference(RefEdit{Name: "refs/heads/main", New: second, Expected: MustExistAndMatch(first)}))
	sha, _, err := repo.ResolveRef("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, second, sha)
}

func TestEditReferenceLocked(t *testing.T) {
	repo := newTestRepo(t)
	lockPath := filepath.Join(repo.GitDir, "refs", "heads", "main.lock")
	require.NoError(t, os.WriteFile(lockPath, nil, constants.DefaultFilePerm))

	err := repo.EditReference(RefEdit{Name: "refs/heads/main", New: [20]byte{1}})
	assert.True(t, geErrors.Is(err, geErrors.ErrIO))
	assert.Contains(t, err.Error(), "cannot lock ref")

	_, err = os.Stat(lockPath)
	assert.NoError(t, err, "a foreign lock is left alone")
}

func TestEditReferenceWritesReflogs(t *testing.T) {
	repo := newTestRepo(t)
	commit := [20]byte{0xaa}

	require.NoError(t, repo.EditReference(RefEdit{
		Name: "HEAD", Deref: true, New: commit, Expected: MustNotExist,
		Log: &LogChange{Message: ReflogMessage("commit", "Initial commit\n\nbody", 0), Committer: bob()},
	}))

	for _, ref := range []string{"HEAD", "refs/heads/main"} {
		entries, err := repo.ReadReflog(ref)
		require.NoError(t, err)
		require.Len(t, entries, 1, ref)
		assert.Equal(t, [20]byte{}, entries[0].Old)
		assert.Equal(t, commit, entries[0].New)
		assert.Equal(t, "commit (initial): Initial commit", entries[0].Message)
		assert.Equal(t, "Bob", entries[0].Committer.Name)
	}

	data, err := os.ReadFile(filepath.Join(repo.GitDir, "logs", "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("0", 40)+" aa"+strings.Repeat("0", 38)+
		" Bob <bob@example.com> 1700000000 +0100\tcommit (initial): Initial commit\n", string(data))
}

func TestReflogRespectsConfig(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.SetConfig("core.logallrefupdates", "false"))

	log := &LogChange{Message: "m", Committer: bob()}
	require.NoError(t, repo.EditReference(RefEdit{Name: "refs/heads/a", New: [20]byte{1}, Log: log}))
	entries, err := repo.ReadReflog("refs/heads/a")
	require.NoError(t, err)
	assert.Empty(t, entries)

	log.Force = true
	require.NoError(t, repo.EditReference(RefEdit{Name: "refs/heads/b", New: [20]byte{1}, Log: log}))
	entries, err = repo.ReadReflog("refs/heads/b")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReflogMessage(t *testing.T) {
	assert.Equal(t, "commit (initial): Initial commit", ReflogMessage("commit", "Initial commit", 0))
	assert.Equal(t, "commit: fix", ReflogMessage("commit", "fix\n", 1))
	assert.Equal(t, "commit (merge): Merge x", ReflogMessage("commit", "Merge x", 2))
}

func TestCreateBranch(t *testing.T) {
	repo := newTestRepo(t)
	first := [20]byte{1}
	second := [20]byte{2}

	require.NoError(t, repo.CreateBranch("main", first, true, bob()))
	require.NoError(t, repo.CreateBranch("main", second, true, bob()))

	sha, _, err := repo.ResolveRef("HEAD")
	require.NoError(t, err)
	assert.Equal(t, second, sha)

	entries, err := repo.ReadReflog("refs/heads/main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[1].Old)
	assert.Equal(t, "branch: Created from 0200000000000000000000000000000000000000", entries[1].Message)

	err = repo.CreateBranch("main", first, false, bob())
	assert.True(t, geErrors.Is(err, geErrors.ErrRefConflict))

	err = repo.CreateBranch("bad..name", first, true, bob())
	assert.True(t, geErrors.Is(err, geErrors.ErrInvalidConfiguration))
}
