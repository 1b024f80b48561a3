package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patch/patchtest"
)

func TestGroupSeries(t *testing.T) {
	mk := func(id, series int, name string) *patch.Patch {
		return patch.New(patchtest.Fixture{ID: id, Series: series, Name: name}.Record())
	}

	tests := []struct {
		name     string
		patches  []*patch.Patch
		expected []int
	}{
		{
			name:     "empty",
			patches:  nil,
			expected: []int{},
		},
		{
			name: "series made contiguous in order of first appearance",
			patches: []*patch.Patch{
				mk(1, 10, "[PATCH 2/2] a2"),
				mk(2, 20, "[PATCH 1/2] b1"),
				mk(3, 10, "[PATCH 1/2] a1"),
				mk(4, 20, "[PATCH 2/2] b2"),
			},
			expected: []int{3, 1, 2, 4},
		},
		{
			name: "missing index sorts first",
			patches: []*patch.Patch{
				mk(1, 10, "[PATCH 1/2] a1"),
				mk(2, 10, "[PATCH] cover"),
				mk(3, 10, "[PATCH 2/2] a2"),
			},
			expected: []int{2, 1, 3},
		},
		{
			name: "patches without a series keep their place",
			patches: []*patch.Patch{
				mk(1, 0, "[PATCH] lone"),
				mk(2, 10, "[PATCH 2/2] a2"),
				mk(3, 0, "[PATCH] other"),
				mk(4, 10, "[PATCH 1/2] a1"),
			},
			expected: []int{1, 4, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []int{}
			for _, p := range GroupSeries(tt.patches) {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStage_Terminal(t *testing.T) {
	assert.False(t, StageApplied.Terminal())
	assert.False(t, StageAwaitingDecision.Terminal())
	assert.True(t, StageCommitted.Terminal())
	assert.True(t, StagePending.Terminal())
}
