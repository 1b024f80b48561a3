package patch

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// Stat summarizes the diff carried by a patch.
type Stat struct {
	Files     int
	Additions int64
	Deletions int64
}

func (s Stat) String() string {
	noun := "files"
	if s.Files == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s changed, %d insertions(+), %d deletions(-)", s.Files, noun, s.Additions, s.Deletions)
}

// Diffstat parses the diff of an mbox.
func Diffstat(mbox string) (Stat, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(normalizeNewlines(mbox)))
	if err != nil {
		return Stat{}, fmt.Errorf("failed to parse diff: %w", err)
	}

	stat := Stat{Files: len(files)}
	for _, f := range files {
		for _, frag := range f.TextFragments {
			stat.Additions += frag.LinesAdded
			stat.Deletions += frag.LinesDeleted
		}
	}
	return stat, nil
}
