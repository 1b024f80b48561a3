// Package patch models one patch under review: the tracker record it is built
// from, the metadata derived from its subject line and the mbox renderings
// used to apply it locally and to reply to it.
package patch

// Person is a mail identity as reported by the tracker.
type Person struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is a tracker account, used for delegation.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// ProjectRef identifies the project a record belongs to.
type ProjectRef struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LinkName string `json:"link_name,omitempty"`
}

// SeriesRef identifies the series a patch was posted in.
type SeriesRef struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	URL     string `json:"url,omitempty"`
}

// Record is the patch record as returned by the tracker REST API.
type Record struct {
	ID        int         `json:"id"`
	URL       string      `json:"url"`
	WebURL    string      `json:"web_url"`
	Project   *ProjectRef `json:"project,omitempty"`
	MsgID     string      `json:"msgid"`
	Date      string      `json:"date"`
	Name      string      `json:"name"`
	CommitRef string      `json:"commit_ref,omitempty"`
	PullURL   string      `json:"pull_url,omitempty"`
	State     string      `json:"state"`
	Archived  bool        `json:"archived"`
	Hash      string      `json:"hash,omitempty"`
	Submitter Person      `json:"submitter"`
	Delegate  *User       `json:"delegate"`
	Mbox      string      `json:"mbox"`
	Series    []SeriesRef `json:"series"`
	Content   string      `json:"content,omitempty"`
}
