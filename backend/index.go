package backend

import (
	"strings"

	"github.com/brickster241/GitSign/plumbing"

	"github.com/brickster241/GitSign/utils/constants"
)

// IndexBackend writes the tree from an (empty) index, renders the commit with CommitCreateBuffer,
// signs that buffer and stores it with CommitSigned. The author is read back from .git/config.
// The branch is force-created, so an existing branch is overwritten.
type IndexBackend struct {
	opts Options
	repo *plumbing.Repository
}

// NewIndexBackend creates an IndexBackend.
func NewIndexBackend(opts Options) *IndexBackend {
	return &IndexBackend{opts: opts.withDefaults()}
}

// Name implements Backend.
func (b *IndexBackend) Name() string { return "INDEX" }

// Dir implements Backend.
func (b *IndexBackend) Dir() string { return b.opts.Dir }

// Repository returns the repository once InitRepo has run.
func (b *IndexBackend) Repository() *plumbing.Repository { return b.repo }

// InitRepo implements Backend. The configured identity is stored in the [user] section.
func (b *IndexBackend) InitRepo() error {
	repo, reinit, err := plumbing.InitRepository(b.opts.Dir, plumbing.InitOptions{
		Branch: b.opts.Branch,
		User:   b.opts.Identity,
	})
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

// WriteEmptyTree implements Backend by writing an empty index and the tree it describes.
func (b *IndexBackend) WriteEmptyTree() ([20]byte, error) {
	if b.repo == nil {
		return [20]byte{}, notInitialized("write tree")
	}
	if err := b.repo.WriteIndex(nil); err != nil {
		return [20]byte{}, err
	}
	tree, err := b.repo.WriteTreeFromIndex()
	if err != nil {
		return [20]byte{}, err
	}
	b.opts.Logger.Info("wrote tree %x from index", tree)
	return tree, nil
}

// PersistSignedCommit implements Backend.
func (b *IndexBackend) PersistSignedCommit(tree [20]byte, signer plumbing.Signer) ([20]byte, error) {
	if b.repo == nil {
		return [20]byte{}, notInitialized("write commit")
	}

	author, err := b.repo.Signature(b.opts.Now())
	if err != nil {
		return [20]byte{}, err
	}

	buffer, err := plumbing.CommitCreateBuffer(author, author, b.opts.Message, tree, nil)
	if err != nil {
		return [20]byte{}, err
	}

	sig, err := signer.Sign(constants.SigNamespace, plumbing.SignatureHash, buffer)
	if err != nil {
		return [20]byte{}, err
	}

	commit, err := b.repo.CommitSigned(buffer, strings.TrimSpace(string(sig.Armor())), constants.SignatureHeader)
	if err != nil {
		return [20]byte{}, err
	}
	b.opts.Logger.Info("wrote signed commit %x", commit)
	return commit, nil
}

// BindReference implements Backend.
func (b *IndexBackend) BindReference(commit [20]byte) error {
	if b.repo == nil {
		return notInitialized("update reference")
	}
	if err := requireCommit(b.repo, commit); err != nil {
		return err
	}

	committer, err := b.repo.Signature(b.opts.Now())
	if err != nil {
		return err
	}
	if err := b.repo.CreateBranch(b.opts.Branch, commit, true, committer); err != nil {
		return err
	}
	b.opts.Logger.Info("branch %s now at %s", b.opts.Branch, shortID(commit))
	return nil
}
