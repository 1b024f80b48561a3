package patch

import (
	"fmt"
	"time"

	"github.com/sevigo/patch-warden/internal/core"
)

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
	time.RFC3339Nano,
}

// Patch is one tracker patch as seen by a review session.
type Patch struct {
	ID        int
	MessageID string
	// Title is the subject as received, with encoded words resolved.
	Title      string
	CleanTitle string
	Index      int
	HasIndex   bool
	Count      int
	Tags       string
	HasTags    bool
	State      core.State
	Delegate   *User
	Submitter  Person
	Date       time.Time
	URL        string
	WebURL     string
	MboxURL    string
	PullURL    string
	SeriesID   int
	SeriesName string

	record Record
	mbox   string
}

// New builds a Patch from its tracker record. Malformed metadata never fails
// construction; the affected fields keep their zero values.
func New(rec Record) *Patch {
	p := &Patch{}
	p.load(rec)
	return p
}

func (p *Patch) load(rec Record) {
	title := DecodeMIMEWords(rec.Name)

	p.record = rec
	p.ID = rec.ID
	p.MessageID = rec.MsgID
	p.Title = title
	p.CleanTitle = CleanSubject(title)
	p.Index, p.HasIndex = Index(title)
	p.Count, _ = Count(title)
	p.Tags, p.HasTags = Tags(title)
	p.State = core.State(rec.State)
	if s, err := core.ParseState(rec.State); err == nil {
		p.State = s
	}
	p.Delegate = rec.Delegate
	p.Submitter = Person{
		ID:    rec.Submitter.ID,
		Name:  DecodeMIMEWords(rec.Submitter.Name),
		Email: rec.Submitter.Email,
	}
	p.Date = parseDate(rec.Date)
	p.URL = rec.URL
	p.WebURL = rec.WebURL
	p.MboxURL = rec.Mbox
	p.PullURL = rec.PullURL
	p.SeriesID, p.SeriesName = 0, ""
	if len(rec.Series) > 0 {
		p.SeriesID = rec.Series[0].ID
		p.SeriesName = rec.Series[0].Name
	}
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Record returns the tracker record the patch was last built from.
func (p *Patch) Record() Record {
	return p.record
}

// Supersede replaces the patch data with a newer record for the same id.
// The fetched mbox is kept.
func (p *Patch) Supersede(rec Record) error {
	if rec.ID != p.ID {
		return fmt.Errorf("record %d cannot supersede patch %d", rec.ID, p.ID)
	}
	p.load(rec)
	return nil
}

// SetState records a state confirmed by the tracker.
func (p *Patch) SetState(s core.State) {
	p.State = s
	p.record.State = string(s)
}

// SetDelegate records a delegate confirmed by the tracker.
func (p *Patch) SetDelegate(u *User) {
	p.Delegate = u
	p.record.Delegate = u
}

// DelegateName returns the delegate's username, or "" when unassigned.
func (p *Patch) DelegateName() string {
	if p.Delegate == nil {
		return ""
	}
	return p.Delegate.Username
}

// Mbox returns the raw message fetched for the patch.
func (p *Patch) Mbox() (string, bool) {
	return p.mbox, p.mbox != ""
}

// SetMbox stores the raw message once fetched.
func (p *Patch) SetMbox(mbox string) {
	p.mbox = mbox
}

// Subject describes the patch for operator prompts.
func (p *Patch) Subject(details ...string) core.Subject {
	return core.Subject{
		PatchID:  p.ID,
		Title:    p.Title,
		State:    p.State,
		Delegate: p.DelegateName(),
		Details:  details,
	}
}

func (p *Patch) String() string {
	return fmt.Sprintf("%d %q", p.ID, p.Title)
}
