// Package patchtest builds patches with realistic mboxes for tests.
package patchtest

import (
	"fmt"
	"strings"

	"github.com/sevigo/patch-warden/internal/patch"
)

// BaseURL is the tracker web root used by fixtures.
const BaseURL = "https://patchwork.example.com"

// Fixture describes a patch to build. Zero fields get defaults.
type Fixture struct {
	ID       int
	Name     string
	State    string
	Series   int
	File     string
	Line     string
	Author   string
	Email    string
	Cc       []string
	Delegate *patch.User
}

// Record returns the tracker record for f.
func (f Fixture) Record() patch.Record {
	f = f.withDefaults()
	rec := patch.Record{
		ID:        f.ID,
		URL:       fmt.Sprintf("%s/api/1.1/patches/%d/", BaseURL, f.ID),
		WebURL:    fmt.Sprintf("%s/project/test/patch/%d@example.com/", BaseURL, f.ID),
		MsgID:     fmt.Sprintf("<%d@example.com>", f.ID),
		Date:      "2011-02-10T12:23:31",
		Name:      f.Name,
		State:     f.State,
		Submitter: patch.Person{Name: f.Author, Email: f.Email},
		Delegate:  f.Delegate,
		Mbox:      fmt.Sprintf("%s/patch/%d/mbox/", BaseURL, f.ID),
	}
	if f.Series != 0 {
		rec.Series = []patch.SeriesRef{{ID: f.Series, Name: "series", Version: 1}}
	}
	return rec
}

// Mbox renders a mail adding one line to a new file.
func (f Fixture) Mbox() string {
	f = f.withDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", f.Author, f.Email)
	fmt.Fprintf(&b, "Subject: %s\n", f.Name)
	fmt.Fprintf(&b, "Message-Id: <%d@example.com>\n", f.ID)
	b.WriteString("To: list@example.com\n")
	if len(f.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(f.Cc, ", "))
	}
	b.WriteString("Date: Thu, 10 Feb 2011 15:23:31 +0300\n\n")
	fmt.Fprintf(&b, "%s\n\nSigned-off-by: %s <%s>\n---\n", patch.CleanSubject(f.Name), f.Author, f.Email)
	fmt.Fprintf(&b, "diff --git a/%[1]s b/%[1]s\nnew file mode 100644\nindex 0000000..1111111\n--- /dev/null\n+++ b/%[1]s\n@@ -0,0 +1 @@\n+%[2]s\n", f.File, f.Line)
	return b.String()
}

// New returns the patch for f with its mbox already fetched.
func New(f Fixture) *patch.Patch {
	p := patch.New(f.Record())
	p.SetMbox(f.Mbox())
	return p
}

func (f Fixture) withDefaults() Fixture {
	if f.ID == 0 {
		f.ID = 1
	}
	if f.Name == "" {
		f.Name = fmt.Sprintf("[PATCH] change %d", f.ID)
	}
	if f.State == "" {
		f.State = "new"
	}
	if f.File == "" {
		f.File = fmt.Sprintf("file-%d.txt", f.ID)
	}
	if f.Line == "" {
		f.Line = fmt.Sprintf("content of %d", f.ID)
	}
	if f.Author == "" {
		f.Author = "Dino Dinosaurus"
	}
	if f.Email == "" {
		f.Email = "dino@example.com"
	}
	return f
}
