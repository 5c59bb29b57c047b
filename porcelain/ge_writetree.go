package porcelain

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/brickster241/GitSign/plumbing"
	"github.com/brickster241/GitSign/utils"
)

// Invoked from main.go. WriteTreeFromIndex handles the 'gesign write-tree' command to create a tree object from the current index and write it to object database.
func WriteTreeFromIndex(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("write-tree",
		"Creates a tree object using the current index. The name of the new tree object is printed to standard output. An empty or missing index yields the empty tree.",
		"gesign write-tree [-C <dir>]")
	dir := fls.String("C", ".", "Run as if started in <dir>")

	// Parse flags from args
	fls.Parse(args[1:])

	// There should be no extra arguments
	if len(fls.Args()) != 0 {
		usage("gesign write-tree [-C <dir>]")
	}

	repo, err := plumbing.OpenRepository(*dir)
	if err != nil {
		fatal(err)
	}
	if err := writeTree(repo, os.Stdout); err != nil {
		fatal(err)
	}
}

// writeTree writes the index as a tree and prints its id.
func writeTree(repo *plumbing.Repository, w io.Writer) error {
	treeSHA, err := repo.WriteTreeFromIndex()
	if err != nil {
		return err
	}

	// Output the written TreeSHA
	fmt.Fprintln(w, hex.EncodeToString(treeSHA[:]))
	return nil
}
