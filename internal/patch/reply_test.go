package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyMessage(t *testing.T) {
	p := newTestPatch(t)

	reply, err := p.ReplyMessage("Timo Testi", "test@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Timo Testi <test@example.com>", reply.Get("From"))
	assert.Equal(t, "Dino Dinosaurus <dino@example.com>", reply.Get("To"))
	assert.Equal(t, "Re: [1/7] foo", reply.Get("Subject"))
	assert.Equal(t, "<11111@example.com>", reply.Get("In-Reply-To"))

	cc, ok := reply.Lookup("Cc")
	assert.True(t, ok, "Cc must always be present")
	assert.Equal(t, "list@example.com", cc)

	assert.True(t, strings.HasPrefix(reply.Body, "Dino Dinosaurus wrote:\n\n> Foo commit log. Ignore this text\n>\n> Signed-off-by:"))
	assert.NotContains(t, reply.Body, "diff --git")
}

func TestReplyMessage_CcNeverContainsSelf(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		to        string
		cc        string
		selfEmail string
		wantCc    string
	}{
		{
			name:      "Operator on list Cc",
			from:      "Dino <dino@example.com>",
			to:        "list@example.com",
			cc:        "Timo <TEST@example.com>, other@example.com",
			selfEmail: "test@example.com",
			wantCc:    "list@example.com, other@example.com",
		},
		{
			name:      "Submitter is operator",
			from:      "Timo <test@example.com>",
			to:        "list@example.com, test@example.com",
			selfEmail: "test@example.com",
			wantCc:    "list@example.com",
		},
		{
			name:      "Only self",
			from:      "Dino <dino@example.com>",
			to:        "test@example.com",
			selfEmail: "test@example.com",
			wantCc:    "",
		},
		{
			name:      "Submitter repeated in Cc",
			from:      "Dino <dino@example.com>",
			to:        "list@example.com",
			cc:        "dino@example.com, list@example.com",
			selfEmail: "test@example.com",
			wantCc:    "list@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mbox := "Subject: [PATCH] foo\nFrom: " + tt.from + "\nTo: " + tt.to + "\n"
			if tt.cc != "" {
				mbox += "Cc: " + tt.cc + "\n"
			}
			mbox += "Message-Id: <1@example.com>\n\nlog\n---\n"

			p := New(Record{ID: 1, Name: "[PATCH] foo"})
			p.SetMbox(mbox)

			reply, err := p.ReplyMessage("Timo Testi", tt.selfEmail)
			require.NoError(t, err)

			cc, ok := reply.Lookup("Cc")
			require.True(t, ok)
			assert.Equal(t, tt.wantCc, cc)
			assert.NotContains(t, strings.ToLower(cc), strings.ToLower(tt.selfEmail))
		})
	}
}
