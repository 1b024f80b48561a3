package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patch/patchtest"
	"github.com/sevigo/patch-warden/internal/patchwork"
)

func init() { //nolint:gochecknoinits // plain output in tests
	color.NoColor = true
}

func TestPrintReport(t *testing.T) {
	commit := core.Commit{ID: "0123456789abcdef", Summary: "foo: fix the frobnicator"}
	report := core.Report{Outcomes: []core.Outcome{
		{
			PatchID:     1,
			Title:       "[PATCH 1/2] foo: fix the frobnicator",
			Status:      core.StatusCommitted,
			Decision:    core.Decision{Kind: core.Accept},
			RemoteState: core.StateAccepted,
			Notified:    true,
			Commit:      &commit,
		},
		{
			PatchID:     2,
			Title:       "[PATCH 2/2] foo: drop the frobnicator",
			Status:      core.StatusPending,
			Decision:    core.Decision{Kind: core.Reject, Reason: "breaks bar"},
			RemoteState: core.StateNew,
			Err:         errors.New("unauthorized"),
		},
	}}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "committed  [1] [PATCH 1/2] foo: fix the frobnicator\n")
	assert.Contains(t, out, "decision: accept, state: accepted, replied\n")
	assert.Contains(t, out, commit.Oneline())
	assert.Contains(t, out, "pending    [2]")
	assert.Contains(t, out, "decision: reject (breaks bar), state: new\n")
	assert.Contains(t, out, "error: unauthorized\n")
	assert.Contains(t, out, "1 committed, 0 decided, 0 skipped, 0 aborted, 1 pending, 0 failed\n")
}

func TestPrintPatches(t *testing.T) {
	p1 := patchtest.New(patchtest.Fixture{ID: 11, Name: "[PATCH] wifi: fix the scan", State: "new",
		Delegate: &patch.User{ID: 3, Username: "kvalo"}})
	p2 := patchtest.New(patchtest.Fixture{ID: 12, Name: "[PATCH] wifi: " + strings.Repeat("x", 80), State: "under-review"})
	require.False(t, p1.Date.IsZero())

	var buf bytes.Buffer
	require.NoError(t, printPatches(&buf, []*patch.Patch{p1, p2}, p1.Date.Add(72*time.Hour), 80))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "AGE", "STATE", "DELEGATE", "TITLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"11", "3d", "new", "kvalo", "[PATCH]", "wifi:", "fix", "the", "scan"}, strings.Fields(lines[1]))

	fields := strings.Fields(lines[2])
	assert.Equal(t, "-", fields[3])
	assert.True(t, strings.HasSuffix(lines[2], "..."))
}

func TestEventDetails(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"state change", `{"previous_state":"new","current_state":"accepted"}`, "new -> accepted"},
		{"delegate", `{"previous_delegate":null,"current_delegate":{"username":"kvalo"}}`, "- -> kvalo"},
		{"other", `{"series":{"id":3}}`, ""},
		{"malformed", `{`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := patchwork.Event{Category: "x", Payload: json.RawMessage(tt.payload)}
			assert.Equal(t, tt.want, eventDetails(e))
		})
	}
}

func TestNormalizeStates(t *testing.T) {
	got, err := normalizeStates([]string{"New", "Changes Requested", "under_review"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "changes-requested", "under-review"}, got)

	_, err = normalizeStates([]string{"!!"})
	assert.Error(t, err)
}
