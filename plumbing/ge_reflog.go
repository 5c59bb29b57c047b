package plumbing

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils"
	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// ReflogEntry is one line of .git/logs/<ref>.
type ReflogEntry struct {
	Old       [20]byte
	New       [20]byte
	Committer types.Identity
	Message   string
}

// ReflogMessage builds the message git writes for a commit-like action: "<action> (initial): <subject>" for root commits,
// "<action> (merge): <subject>" for merges and "<action>: <subject>" otherwise.
func ReflogMessage(action, message string, parents int) string {
	subject, _, _ := strings.Cut(message, "\n")
	subject = strings.TrimSpace(subject)
	switch {
	case parents == 0:
		return fmt.Sprintf("%s (initial): %s", action, subject)
	case parents > 1:
		return fmt.Sprintf("%s (merge): %s", action, subject)
	}
	return fmt.Sprintf("%s: %s", action, subject)
}

// AppendReflog adds entry to the log of ref, creating it if needed.
func (r *Repository) AppendReflog(ref string, entry ReflogEntry) error {
	logPath := r.path("logs", filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(logPath), constants.DefaultDirPerm); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "create reflog directory", ref, err)
	}

	// Messages are single-line
	message := strings.ReplaceAll(strings.TrimRight(entry.Message, "\n"), "\n", " ")
	line := fmt.Sprintf("%s %s %s\t%s\n",
		hex.EncodeToString(entry.Old[:]),
		hex.EncodeToString(entry.New[:]),
		FormatIdentity(entry.Committer),
		message,
	)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.DefaultFilePerm)
	if err != nil {
		return geErrors.EPath(geErrors.ErrIO, "open reflog", ref, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return geErrors.EPath(geErrors.ErrIO, "append reflog", ref, err)
	}
	if err := f.Close(); err != nil {
		return geErrors.EPath(geErrors.ErrIO, "append reflog", ref, err)
	}
	return nil
}

// ReadReflog returns the entries of ref's log, oldest first. A missing log yields no entries.
func (r *Repository) ReadReflog(ref string) ([]ReflogEntry, error) {
	data, err := os.ReadFile(r.path("logs", filepath.FromSlash(ref)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, geErrors.EPath(geErrors.ErrIO, "read reflog", ref, err)
	}

	var entries []ReflogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, err := parseReflogLine(line)
		if err != nil {
			return nil, geErrors.EPath(geErrors.ErrEncoding, "read reflog", ref, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, geErrors.EPath(geErrors.ErrIO, "read reflog", ref, err)
	}
	return entries, nil
}

// parseReflogLine parses "<old> <new> <identity>\t<message>".
func parseReflogLine(line string) (ReflogEntry, error) {
	head, message, _ := strings.Cut(line, "\t")
	if len(head) < 83 || head[40] != ' ' || head[81] != ' ' {
		return ReflogEntry{}, fmt.Errorf("malformed reflog line %q", line)
	}
	oldSHA, err := utils.ParseSHA(head[:40])
	if err != nil {
		return ReflogEntry{}, err
	}
	newSHA, err := utils.ParseSHA(head[41:81])
	if err != nil {
		return ReflogEntry{}, err
	}
	committer, err := ParseIdentity(head[82:])
	if err != nil {
		return ReflogEntry{}, err
	}
	return ReflogEntry{Old: oldSHA, New: newSHA, Committer: committer, Message: message}, nil
}
