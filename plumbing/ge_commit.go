package plumbing

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	geErrors "github.com/brickster241/GitSign/utils/errors"

	"github.com/brickster241/GitSign/utils"
	"github.com/brickster241/GitSign/utils/types"
)

// FoldHeaderValue renders a multi-line header value: every embedded newline is followed by exactly one space.
func FoldHeaderValue(value string) string {
	return strings.ReplaceAll(value, "\n", "\n ")
}

// UnfoldHeaderValue reverses FoldHeaderValue.
func UnfoldHeaderValue(folded string) string {
	return strings.ReplaceAll(folded, "\n ", "\n")
}

// FormatTimezone renders a UTC offset in seconds as git's "+hhmm" / "-hhmm".
func FormatTimezone(offset int) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d%02d", sign, offset/3600, (offset%3600)/60)
}

// CommitTime reduces t to what a commit line can carry: whole seconds in a fixed zone with a whole-minute offset.
// An identity stamped with it compares equal to the one decoded from the encoded commit.
func CommitTime(t time.Time) time.Time {
	_, offset := t.Zone()
	return zonedUnix(t.Unix(), offset/60*60)
}

func zonedUnix(sec int64, offset int) time.Time {
	return time.Unix(sec, 0).In(time.FixedZone("", offset))
}

// FormatIdentity renders "<name> <<email>> <unix-seconds> <+hhmm>".
func FormatIdentity(id types.Identity) string {
	_, offset := id.When.Zone()
	return fmt.Sprintf("%s <%s> %d %s", id.Name, id.Email, id.When.Unix(), FormatTimezone(offset))
}

// ParseIdentity parses the value of an author / committer line.
func ParseIdentity(value string) (types.Identity, error) {
	bad := func(reason string) (types.Identity, error) {
		return types.Identity{}, geErrors.E(geErrors.ErrEncoding, "parse identity", fmt.Errorf("%s: %q", reason, value))
	}

	gt := strings.LastIndexByte(value, '>')
	if gt < 0 {
		return bad("missing '>'")
	}
	lt := strings.LastIndexByte(value[:gt], '<')
	if lt < 0 {
		return bad("missing '<'")
	}

	// "<ts> <tz>"
	fields := strings.Fields(value[gt+1:])
	if len(fields) != 2 {
		return bad("missing timestamp")
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return bad("invalid timestamp")
	}
	tz := fields[1]
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return bad("invalid timezone")
	}
	hours, errH := strconv.Atoi(tz[1:3])
	minutes, errM := strconv.Atoi(tz[3:5])
	if errH != nil || errM != nil {
		return bad("invalid timezone")
	}
	offset := hours*3600 + minutes*60
	if tz[0] == '-' {
		offset = -offset
	}

	return types.Identity{
		Name:  strings.TrimSuffix(value[:lt], " "),
		Email: value[lt+1 : gt],
		When:  zonedUnix(ts, offset),
	}, nil
}

// reservedHeaders are written from the structured commit fields and cannot appear as extra headers.
var reservedHeaders = map[string]bool{
	"tree":      true,
	"parent":    true,
	"author":    true,
	"committer": true,
	"encoding":  true,
}

// validateCommit rejects values that cannot be rendered line-oriented without ambiguity.
func validateCommit(c *types.Commit) error {
	bad := func(format string, args ...interface{}) error {
		return geErrors.E(geErrors.ErrEncoding, "encode commit", fmt.Errorf(format, args...))
	}
	for _, id := range []types.Identity{c.Author, c.Committer} {
		if strings.ContainsAny(id.Name, "<>\n") || strings.ContainsAny(id.Email, "<>\n") {
			return bad("identity %q contains '<', '>' or a newline", id.Name)
		}
	}
	if strings.Contains(c.Encoding, "\n") {
		return bad("encoding contains a newline")
	}
	for _, h := range c.ExtraHeaders {
		if h.Key == "" || strings.ContainsAny(h.Key, " \n") {
			return bad("invalid header key %q", h.Key)
		}
		if reservedHeaders[h.Key] {
			return bad("header key %q is reserved", h.Key)
		}
	}
	return nil
}

// EncodeCommit serializes a commit into its canonical bytes. It is a pure function of c.
func EncodeCommit(c *types.Commit) ([]byte, error) {
	if err := validateCommit(c); err != nil {
		return nil, err
	}

	var content bytes.Buffer

	// Tree Line : "tree <sha_hex>\n"
	content.WriteString("tree ")
	content.WriteString(hex.EncodeToString(c.Tree[:]))
	content.WriteByte('\n')

	// Parent Line per parent (if exists) : "parent <sha_parent1>\n"
	for _, parentSHA := range c.Parents {
		content.WriteString("parent ")
		content.WriteString(hex.EncodeToString(parentSHA[:]))
		content.WriteByte('\n')
	}

	content.WriteString("author " + FormatIdentity(c.Author) + "\n")
	content.WriteString("committer " + FormatIdentity(c.Committer) + "\n")

	if c.Encoding != "" {
		content.WriteString("encoding " + c.Encoding + "\n")
	}

	// Extra headers in insertion order, continuation lines folded
	for _, h := range c.ExtraHeaders {
		content.WriteString(h.Key)
		content.WriteByte(' ')
		content.WriteString(FoldHeaderValue(h.Value))
		content.WriteByte('\n')
	}

	// blank line, then the message verbatim
	content.WriteByte('\n')
	content.WriteString(c.Message)

	return content.Bytes(), nil
}

// DecodeCommit parses canonical commit bytes back into a Commit.
func DecodeCommit(data []byte) (*types.Commit, error) {
	bad := func(format string, args ...interface{}) error {
		return geErrors.E(geErrors.ErrEncoding, "decode commit", fmt.Errorf(format, args...))
	}

	// Split header lines (unfolding continuations) from the message
	var headers []types.ExtraHeader
	pos := 0
	for {
		nl := bytes.IndexByte(data[pos:], '\n')
		if nl < 0 {
			return nil, bad("missing blank line before message")
		}
		line := string(data[pos : pos+nl])
		pos += nl + 1

		if line == "" {
			break
		}
		if line[0] == ' ' {
			if len(headers) == 0 {
				return nil, bad("continuation line before any header")
			}
			headers[len(headers)-1].Value += "\n" + line[1:]
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, bad("malformed header line %q", line)
		}
		headers = append(headers, types.ExtraHeader{Key: key, Value: value})
	}

	c := &types.Commit{Message: string(data[pos:])}
	i := 0
	next := func(key string) (string, bool) {
		if i < len(headers) && headers[i].Key == key {
			i++
			return headers[i-1].Value, true
		}
		return "", false
	}

	// Tree Line
	treeHex, ok := next("tree")
	if !ok {
		return nil, bad("missing tree")
	}
	tree, err := utils.ParseSHA(treeHex)
	if err != nil {
		return nil, bad("tree: %v", err)
	}
	c.Tree = tree

	// Parent Line(s)
	for {
		parentHex, ok := next("parent")
		if !ok {
			break
		}
		parent, err := utils.ParseSHA(parentHex)
		if err != nil {
			return nil, bad("parent: %v", err)
		}
		c.Parents = append(c.Parents, parent)
	}

	// Author / Committer Lines
	for _, role := range []struct {
		key string
		dst *types.Identity
	}{{"author", &c.Author}, {"committer", &c.Committer}} {
		value, ok := next(role.key)
		if !ok {
			return nil, bad("missing %s", role.key)
		}
		id, err := ParseIdentity(value)
		if err != nil {
			return nil, err
		}
		*role.dst = id
	}

	if enc, ok := next("encoding"); ok {
		c.Encoding = enc
	}

	// Anything left is an extra header, order preserved
	if i < len(headers) {
		c.ExtraHeaders = append([]types.ExtraHeader(nil), headers[i:]...)
	}
	return c, nil
}

// WriteCommit encodes c and writes it to the object database, returning the commit SHA.
func (r *Repository) WriteCommit(c *types.Commit) ([20]byte, error) {
	content, err := EncodeCommit(c)
	if err != nil {
		return [20]byte{}, err
	}
	return r.WriteObject(types.CommitObject, content)
}

// ReadCommit reads and parses a commit object from the object database.
func (r *Repository) ReadCommit(sha [20]byte) (*types.Commit, error) {
	shaHex := hex.EncodeToString(sha[:])
	objType, data, err := r.ReadObject(shaHex)
	if err != nil {
		return nil, err
	}

	// Check whether it is a commit object
	if objType != types.CommitObject {
		return nil, geErrors.EPath(geErrors.ErrEncoding, "read commit", shaHex, fmt.Errorf("object is a %s, not a commit", objType))
	}
	return DecodeCommit(data)
}
