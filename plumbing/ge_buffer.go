package plumbing

import (
	"bytes"
	"fmt"
	"strings"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils/constants"
	"github.com/brickster241/GitSign/utils/types"
)

// CommitCreateBuffer renders an unsigned commit without writing it, so the caller can sign the exact bytes.
func CommitCreateBuffer(author, committer types.Identity, message string, tree [20]byte, parents [][20]byte) ([]byte, error) {
	if err := validateCommit(&types.Commit{Author: author, Committer: committer}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	// Tree Line
	buf.WriteString(fmt.Sprintf("tree %x\n", tree))

	// Parent Lines
	for _, parent := range parents {
		buf.WriteString(fmt.Sprintf("parent %x\n", parent))
	}

	// Author / Committer Lines
	buf.WriteString(fmt.Sprintf("author %s\n", FormatIdentity(author)))
	buf.WriteString(fmt.Sprintf("committer %s\n", FormatIdentity(committer)))

	// Blank line, then message
	buf.WriteString("\n")
	buf.WriteString(message)

	return buf.Bytes(), nil
}

// CommitSigned inserts "<field> <signature>" as the last header of buffer and writes the result as a commit object.
// An empty field means gpgsig.
func (r *Repository) CommitSigned(buffer []byte, signature, field string) ([20]byte, error) {
	if field == "" {
		field = constants.SignatureHeader
	}
	if reservedHeaders[field] || strings.ContainsAny(field, " \n") {
		return [20]byte{}, geErrors.E(geErrors.ErrEncoding, "create signed commit", fmt.Errorf("invalid signature field %q", field))
	}

	// Headers end at the first blank line
	end := bytes.Index(buffer, []byte("\n\n"))
	if end < 0 {
		return [20]byte{}, geErrors.E(geErrors.ErrEncoding, "create signed commit", fmt.Errorf("commit buffer has no message separator"))
	}

	header := field + " " + FoldHeaderValue(strings.TrimRight(signature, "\n")) + "\n"

	signed := make([]byte, 0, len(buffer)+len(header))
	signed = append(signed, buffer[:end+1]...)
	signed = append(signed, header...)
	signed = append(signed, buffer[end+1:]...)

	// Must still be a well-formed commit
	if _, err := DecodeCommit(signed); err != nil {
		return [20]byte{}, err
	}
	return r.WriteObject(types.CommitObject, signed)
}
