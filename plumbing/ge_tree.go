package plumbing

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils"
	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// BuildTreeFromIndex builds an in-memory tree structure from the given index entries.
func BuildTreeFromIndex(entries []types.IndexEntry) *types.TreeNode {

	// Build the tree structure
	root := &types.TreeNode{
		Files: make(map[string]types.IndexEntry),
		Dirs:  make(map[string]*types.TreeNode),
	}

	// Populate the tree structure
	for _, entry := range entries {
		parts := strings.Split(entry.Filename, "/")

		currNode := root
		// Traverse or create directories
		for i := 0; i < len(parts)-1; i++ {
			dir := parts[i]
			if currNode.Dirs[dir] == nil {
				currNode.Dirs[dir] = &types.TreeNode{
					Files: make(map[string]types.IndexEntry),
					Dirs:  make(map[string]*types.TreeNode),
				}
			}
			currNode = currNode.Dirs[dir]
		}

		// Add the file to the current directory node
		currNode.Files[parts[len(parts)-1]] = entry
	}
	return root
}

// EncodeTree serializes entries into tree object content. Entries are sorted the way git sorts them:
// by name, with directories compared as if they had a trailing slash.
func EncodeTree(entries []types.TreeEntry) []byte {
	sorted := append([]types.TreeEntry(nil), entries...)
	sortKey := func(e types.TreeEntry) string {
		if e.Mode == constants.ModeTree {
			return e.Name + "/"
		}
		return e.Name
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) < sortKey(sorted[j])
	})

	var content bytes.Buffer
	for _, e := range sorted {
		// "<mode> <name>\0" + raw 20-byte SHA
		content.WriteString(fmt.Sprintf("%o", e.Mode))
		content.WriteByte(' ')
		content.WriteString(e.Name)
		content.WriteByte(0)
		content.Write(e.SHA[:])
	}
	return content.Bytes()
}

// WriteTree recursively writes tree objects to the object database and returns the SHA of the root tree.
func (r *Repository) WriteTree(node *types.TreeNode) ([20]byte, error) {
	var entries []types.TreeEntry

	// recursion first (dirs)
	for name, child := range node.Dirs {
		sha, err := r.WriteTree(child)
		if err != nil {
			return [20]byte{}, err
		}

		entries = append(entries, types.TreeEntry{
			Mode: constants.ModeTree,
			Name: name,
			SHA:  sha,
			Type: types.TreeObject,
		})
	}

	// Files
	for name, ie := range node.Files {
		mode := ie.Mode
		if mode == 0 {
			mode = constants.ModeFile
		}
		entries = append(entries, types.TreeEntry{
			Mode: mode,
			Name: name,
			SHA:  ie.SHA1,
			Type: types.BlobObject,
		})
	}

	return r.WriteObject(types.TreeObject, EncodeTree(entries))
}

// WriteTreeFromIndex loads .git/index and writes the tree it describes. An empty index yields the empty tree.
func (r *Repository) WriteTreeFromIndex() ([20]byte, error) {
	entries, err := r.LoadIndex()
	if err != nil {
		return [20]byte{}, err
	}
	return r.WriteTree(BuildTreeFromIndex(entries))
}

// WriteEmptyTree writes the zero-entry tree object explicitly.
func (r *Repository) WriteEmptyTree() ([20]byte, error) {
	return r.WriteObject(types.TreeObject, nil)
}

// ReadTree reads one tree object and decodes its entries (non-recursive).
func (r *Repository) ReadTree(shaHex string) ([]types.TreeEntry, error) {

	objType, content, err := r.ReadObject(shaHex)
	if err != nil {
		return nil, err
	}
	if objType != types.TreeObject {
		return nil, geErrors.EPath(geErrors.ErrEncoding, "read tree", shaHex, fmt.Errorf("object is a %s, not a tree", objType))
	}
	return DecodeTree(content)
}

// DecodeTree parses tree object content.
func DecodeTree(content []byte) ([]types.TreeEntry, error) {
	bad := func(msg string) error {
		return geErrors.E(geErrors.ErrEncoding, "decode tree", fmt.Errorf("%s", msg))
	}

	entries := []types.TreeEntry{}
	i := 0

	for i < len(content) {
		// Find NUL separating "<mode> <name>" and SHA
		nullIdx := bytes.IndexByte(content[i:], 0)
		if nullIdx == -1 {
			return nil, bad("corrupt tree object")
		}

		parts := strings.SplitN(string(content[i:i+nullIdx]), " ", 2)
		if len(parts) != 2 {
			return nil, bad("invalid tree entry header")
		}

		// RAW SHA (next 20 bytes)
		shaStart := i + nullIdx + 1
		shaEnd := shaStart + 20
		if shaEnd > len(content) {
			return nil, bad("truncated tree object")
		}

		var sha [20]byte
		copy(sha[:], content[shaStart:shaEnd])

		mode, err := utils.ParseModeStr(parts[0])
		if err != nil {
			return nil, bad("invalid mode format")
		}

		entryType := types.BlobObject
		switch mode {
		case constants.ModeTree:
			entryType = types.TreeObject
		case constants.ModeGitlink:
			entryType = types.CommitObject
		}

		entries = append(entries, types.TreeEntry{
			Name: parts[1],
			Mode: mode,
			SHA:  sha,
			Type: entryType,
		})

		i = shaEnd
	}

	return entries, nil
}
