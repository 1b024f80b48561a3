package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/patch-warden/internal/core"
)

func TestNew(t *testing.T) {
	rec := Record{
		ID:        11,
		Name:      "[PATCH v2 3/9] wifi: fix foo",
		State:     "under-review",
		MsgID:     "<m@example.com>",
		Date:      "2020-01-01T01:00:00",
		Delegate:  &User{ID: 3, Username: "dddd"},
		Submitter: Person{Name: "Dino", Email: "dino@example.com"},
		Series:    []SeriesRef{{ID: 40, Name: "wifi fixes", Version: 2}},
		PullURL:   "https://github.com/sevigo/patch-warden/pull/12",
	}
	p := New(rec)

	assert.Equal(t, 11, p.ID)
	assert.Equal(t, "wifi: fix foo", p.CleanTitle)
	assert.Equal(t, 3, p.Index)
	assert.Equal(t, 9, p.Count)
	assert.Equal(t, "[PATCH v2 3/9]", p.Tags)
	assert.Equal(t, core.StateUnderReview, p.State)
	assert.Equal(t, "dddd", p.DelegateName())
	assert.Equal(t, 40, p.SeriesID)
	assert.Equal(t, 2020, p.Date.Year())

	subject := p.Subject("1 file changed")
	assert.Equal(t, 11, subject.PatchID)
	assert.Equal(t, []string{"1 file changed"}, subject.Details)
}

func TestPatch_Mutations(t *testing.T) {
	p := New(Record{ID: 11, Name: "foo", State: "new"})
	p.SetMbox("raw")

	p.SetState(core.StateAccepted)
	assert.Equal(t, core.StateAccepted, p.State)
	assert.Equal(t, "accepted", p.Record().State)

	p.SetDelegate(&User{ID: 7, Username: "timo"})
	assert.Equal(t, "timo", p.DelegateName())

	require.NoError(t, p.Supersede(Record{ID: 11, Name: "[v2] foo", State: "rejected"}))
	assert.Equal(t, core.StateRejected, p.State)
	assert.Equal(t, "[v2]", p.Tags)
	mbox, ok := p.Mbox()
	assert.True(t, ok)
	assert.Equal(t, "raw", mbox)

	assert.Error(t, p.Supersede(Record{ID: 12}))
}
