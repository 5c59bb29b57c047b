package backend

import (
	"github.com/brickster241/GitSign/plumbing"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// DirectObjectBackend writes the empty tree and the signed commit straight into the object store,
// then binds HEAD (and through it the branch) with a reference edit that requires the branch not
// to exist yet. Running it twice on the same repository fails with ErrRefConflict.
type DirectObjectBackend struct {
	opts Options
	repo *plumbing.Repository

	committer types.Identity
	parents   int
}

// NewDirectObjectBackend creates a DirectObjectBackend.
func NewDirectObjectBackend(opts Options) *DirectObjectBackend {
	return &DirectObjectBackend{opts: opts.withDefaults()}
}

// Name implements Backend.
func (b *DirectObjectBackend) Name() string { return "DIRECT" }

// Dir implements Backend.
func (b *DirectObjectBackend) Dir() string { return b.opts.Dir }

// Repository returns the repository once InitRepo has run.
func (b *DirectObjectBackend) Repository() *plumbing.Repository { return b.repo }

// InitRepo implements Backend.
func (b *DirectObjectBackend) InitRepo() error {
	repo, reinit, err := plumbing.InitRepository(b.opts.Dir, plumbing.InitOptions{Branch: b.opts.Branch})
	if err != nil {
		return err
	}
	b.repo = repo
	if reinit {
		b.opts.Logger.Warning("reinitialized existing repository in %s", repo.GitDir)
	} else {
		b.opts.Logger.Info("initialized empty repository in %s", repo.GitDir)
	}
	return nil
}

// WriteEmptyTree implements Backend.
func (b *DirectObjectBackend) WriteEmptyTree() ([20]byte, error) {
	if b.repo == nil {
		return [20]byte{}, notInitialized("write tree")
	}
	return b.repo.WriteEmptyTree()
}

// PersistSignedCommit implements Backend.
func (b *DirectObjectBackend) PersistSignedCommit(tree [20]byte, signer plumbing.Signer) ([20]byte, error) {
	if b.repo == nil {
		return [20]byte{}, notInitialized("write commit")
	}

	id := b.opts.identity()
	draft := &types.Commit{
		Tree:      tree,
		Author:    id,
		Committer: id,
		Message:   b.opts.Message,
	}

	_, signed, err := plumbing.SignCommit(draft, signer)
	if err != nil {
		return [20]byte{}, err
	}

	commit, err := b.repo.WriteCommit(signed)
	if err != nil {
		return [20]byte{}, err
	}
	b.committer = signed.Committer
	b.parents = len(signed.Parents)
	b.opts.Logger.Info("wrote signed commit %x", commit)
	return commit, nil
}

// BindReference implements Backend.
func (b *DirectObjectBackend) BindReference(commit [20]byte) error {
	if b.repo == nil {
		return notInitialized("update reference")
	}
	if err := requireCommit(b.repo, commit); err != nil {
		return err
	}

	committer := b.committer
	if committer.When.IsZero() {
		committer = b.opts.identity()
	}

	err := b.repo.EditReference(plumbing.RefEdit{
		Name:     constants.HeadRef,
		Deref:    true,
		New:      commit,
		Expected: plumbing.MustNotExist,
		Log: &plumbing.LogChange{
			Message:   plumbing.ReflogMessage("commit", b.opts.Message, b.parents),
			Committer: committer,
		},
	})
	if err != nil {
		return err
	}
	b.opts.Logger.Info("HEAD -> %s now at %s", b.opts.Branch, shortID(commit))
	return nil
}
