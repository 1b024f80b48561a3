package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/patch-warden/internal/gitutil"
)

// Describer turns a pull request URL into a one line summary.
type Describer struct {
	client Client
}

func NewDescriber(client Client) *Describer {
	return &Describer{client: client}
}

// Describe fetches the pull request at url.
func (d *Describer) Describe(ctx context.Context, url string) (string, error) {
	ref, err := gitutil.ParsePullRequestURL(url)
	if err != nil {
		return "", err
	}
	pr, err := d.client.GetPullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return "", fmt.Errorf("github: pull request %s: %w", ref, err)
	}
	return Summary(ref, pr), nil
}

// Summary renders pr as "owner/repo#N by user: title (state, +A/-D in F files)".
func Summary(ref gitutil.PullRequestRef, pr *github.PullRequest) string {
	var b strings.Builder
	b.WriteString(ref.String())
	if login := pr.GetUser().GetLogin(); login != "" {
		b.WriteString(" by " + login)
	}
	if title := strings.TrimSpace(pr.GetTitle()); title != "" {
		b.WriteString(": " + title)
	}

	state := pr.GetState()
	switch {
	case pr.GetMerged():
		state = "merged"
	case pr.GetDraft() && state == "open":
		state = "draft"
	}
	files := "files"
	if pr.GetChangedFiles() == 1 {
		files = "file"
	}
	fmt.Fprintf(&b, " (%s, +%d/-%d in %d %s)", state, pr.GetAdditions(), pr.GetDeletions(), pr.GetChangedFiles(), files)
	return b.String()
}
