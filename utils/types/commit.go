package types

import "time"

// Identity is an author or committer: name, email and the moment (with its UTC offset) of the action.
type Identity struct {
	Name  string
	Email string
	When  time.Time
}

// ExtraHeader is a commit header that is not one of tree/parent/author/committer/encoding.
type ExtraHeader struct {
	Key   string
	Value string
}

// Commit represents a commit object
type Commit struct {
	Tree         [20]byte      // root tree SHA
	Parents      [][20]byte    // parent commit SHAs, empty for a root commit
	Author       Identity      // author info
	Committer    Identity      // committer info
	Encoding     string        // optional, omitted when empty
	ExtraHeaders []ExtraHeader // insertion order is preserved in the encoding
	Message      string        // written verbatim
}

// Clone returns a deep copy, so a draft can be extended without being mutated.
func (c *Commit) Clone() *Commit {
	out := *c
	out.Parents = append([][20]byte(nil), c.Parents...)
	out.ExtraHeaders = append([]ExtraHeader(nil), c.ExtraHeaders...)
	return &out
}

// Header returns the value of the first extra header named key.
func (c *Commit) Header(key string) (string, bool) {
	for _, h := range c.ExtraHeaders {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}
