package porcelain

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/brickster241/GitSign/plumbing"
	"github.com/brickster241/GitSign/utils"
)

// Invoked from main.go. GetOrSetConfig handles 'gesign config' command which is stored at .git/config.
func GetOrSetConfig(args []string) {

	// Define flagset
	fls := utils.CreateCommandFlagSet("config",
		"Get and set repo config options. Configuration keys are \"section.name\" pairs stored in .git/config, e.g. user.name or core.logallrefupdates.",
		"gesign config [-C <dir>] (get <key> | set <key> <value>)")
	dir := fls.String("C", ".", "Run as if started in <dir>")

	// Parse flags from args
	fls.Parse(args[1:])

	repo, err := plumbing.OpenRepository(*dir)
	if err != nil {
		fatal(err)
	}

	if err := runConfig(repo, fls.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage("gesign config [-C <dir>] (get <key> | set <key> <value>)")
		}
		fatal(err)
	}
}

// runConfig executes "get <key>" or "set <key> <value>" against repo.
func runConfig(repo *plumbing.Repository, pos []string, w io.Writer) error {
	if len(pos) == 0 {
		return errUsage
	}

	switch pos[0] {
	case "set": // Set config value for specific key
		if len(pos) != 3 {
			return errUsage
		}
		return repo.SetConfig(pos[1], pos[2])

	case "get": // Get config value for specific key
		if len(pos) != 2 {
			return errUsage
		}
		val, err := repo.GetConfig(pos[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, val)
		return nil
	}
	return fmt.Errorf("unknown config command %q: %w", pos[0], errUsage)
}
