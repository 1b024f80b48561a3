package core

import "fmt"

// AbbrevLen is the length of a commit id as shown to the operator.
const AbbrevLen = 12

// Commit is one patch applied to the local repository during a session.
type Commit struct {
	// ID is derived from the normalized mbox content and is stable across
	// re-renders of the same patch.
	ID string
	// Ref is the back-end handle: a git object name or an stgit patch name.
	Ref     string
	Summary string
	PatchID int
	// Mbox is kept so the commit can be re-applied after an unwind.
	Mbox string
}

// AbbrevID returns the shortened commit id.
func (c Commit) AbbrevID() string {
	if len(c.ID) <= AbbrevLen {
		return c.ID
	}
	return c.ID[:AbbrevLen]
}

// Oneline renders the commit the way `git log --oneline` would.
func (c Commit) Oneline() string {
	return fmt.Sprintf("%s %s", c.AbbrevID(), c.Summary)
}
