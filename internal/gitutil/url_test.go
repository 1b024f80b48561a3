package gitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePullRequestURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    PullRequestRef
		wantErr bool
	}{
		{
			name: "Valid HTTPS URL",
			url:  "https://github.com/sevigo/patch-warden/pull/123",
			want: PullRequestRef{Owner: "sevigo", Repo: "patch-warden", Number: 123},
		},
		{
			name: "Trailing slash and fragment",
			url:  "https://github.com/sevigo/patch-warden/pull/789/#discussion",
			want: PullRequestRef{Owner: "sevigo", Repo: "patch-warden", Number: 789},
		},
		{
			name: "Query string",
			url:  "https://github.com/torvalds/linux/pull/5?w=1",
			want: PullRequestRef{Owner: "torvalds", Repo: "linux", Number: 5},
		},
		{
			name:    "Git pull url",
			url:     "git://git.kernel.org/pub/scm/linux/kernel/git/foo/bar.git tags/fixes",
			wantErr: true,
		},
		{
			name:    "Files tab",
			url:     "https://github.com/sevigo/patch-warden/pull/123/files",
			wantErr: true,
		},
		{
			name:    "Zero number",
			url:     "https://github.com/sevigo/patch-warden/pull/0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePullRequestURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPullRequestRef_String(t *testing.T) {
	assert.Equal(t, "sevigo/patch-warden#4", PullRequestRef{Owner: "sevigo", Repo: "patch-warden", Number: 4}.String())
}
