package patchwork_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patchwork"
	"github.com/sevigo/patch-warden/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stateUpdate(s string) patchwork.Update {
	return patchwork.Update{State: &s}
}

func TestSyncer_PushStateIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()

	client.EXPECT().GetPatch(ctx, 11).Return(patch.Record{ID: 11, State: "new"}, nil).Times(1)
	client.EXPECT().UpdatePatch(ctx, 11, stateUpdate("accepted")).
		Return(patch.Record{ID: 11, State: "accepted"}, nil).Times(1)

	s := patchwork.NewSyncer(client, discardLogger())

	rec, err := s.PushState(ctx, 11, core.StateAccepted)
	require.NoError(t, err)
	assert.Equal(t, "accepted", rec.State)

	rec, err = s.PushState(ctx, 11, core.StateAccepted)
	require.NoError(t, err, "pushing the same state twice must succeed")
	assert.Equal(t, "accepted", rec.State)
}

func TestSyncer_PushStateRetryAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	transportErr := &patchwork.TrackerError{Kind: patchwork.KindTransport, Op: "update patch", PatchID: 11, Err: errors.New("timeout")}

	gomock.InOrder(
		client.EXPECT().UpdatePatch(ctx, 11, stateUpdate("changes-requested")).Return(patch.Record{}, transportErr),
		client.EXPECT().UpdatePatch(ctx, 11, stateUpdate("changes-requested")).
			Return(patch.Record{ID: 11, State: "changes-requested"}, nil),
	)

	s := patchwork.NewSyncer(client, discardLogger())
	s.Remember(patch.Record{ID: 11, State: "under-review"})

	_, err := s.PushState(ctx, 11, core.StateChangesRequested)
	require.Error(t, err)
	var te *patchwork.TrackerError
	assert.ErrorAs(t, err, &te)

	rec, err := s.PushState(ctx, 11, core.StateChangesRequested)
	require.NoError(t, err)
	assert.Equal(t, "changes-requested", rec.State)
}

func TestSyncer_PushDelegate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	delegate := 7

	client.EXPECT().UpdatePatch(ctx, 11, patchwork.Update{Delegate: &delegate}).
		Return(patch.Record{ID: 11, Delegate: &patch.User{ID: 7, Username: "timo"}}, nil).Times(1)

	s := patchwork.NewSyncer(client, discardLogger())
	s.Remember(patch.Record{ID: 11})

	_, err := s.PushDelegate(ctx, 11, 7)
	require.NoError(t, err)
	rec, err := s.PushDelegate(ctx, 11, 7)
	require.NoError(t, err)
	assert.Equal(t, "timo", rec.Delegate.Username)
}

func TestSyncer_PushStateNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	client.EXPECT().GetPatch(ctx, 99).
		Return(patch.Record{}, &patchwork.TrackerError{Kind: patchwork.KindNotFound, Op: "get patch", PatchID: 99, Status: 404})

	_, err := patchwork.NewSyncer(client, discardLogger()).PushState(ctx, 99, core.StateAccepted)
	assert.True(t, patchwork.IsNotFound(err))
	assert.False(t, patchwork.IsUnauthorized(err))
}

func TestSyncer_ListAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	filter := patchwork.Filter{Project: "wireless", States: []string{"new"}}

	gomock.InOrder(
		client.EXPECT().ListPatches(ctx, filter, "").
			Return(patchwork.Page{Records: []patch.Record{{ID: 1}, {ID: 2}}, Next: "page-2"}, nil),
		client.EXPECT().ListPatches(ctx, filter, "page-2").
			Return(patchwork.Page{Records: []patch.Record{{ID: 3}}}, nil),
	)

	records, err := patchwork.NewSyncer(client, discardLogger()).ListAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 3, records[2].ID)
}

func TestSyncer_ListAllIncomplete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	filter := patchwork.Filter{Project: "wireless"}
	cause := &patchwork.TrackerError{Kind: patchwork.KindTransport, Op: "list patches", Err: errors.New("connection reset")}

	gomock.InOrder(
		client.EXPECT().ListPatches(ctx, filter, "").
			Return(patchwork.Page{Records: []patch.Record{{ID: 1}, {ID: 2}}, Next: "page-2"}, nil),
		client.EXPECT().ListPatches(ctx, filter, "page-2").Return(patchwork.Page{}, cause),
	)

	records, err := patchwork.NewSyncer(client, discardLogger()).ListAll(ctx, filter)
	require.Error(t, err)
	assert.Len(t, records, 2, "already fetched patches must be returned")

	var incomplete *patchwork.IncompleteFetchError
	require.ErrorAs(t, err, &incomplete)
	assert.Len(t, incomplete.Records, 2)
	assert.ErrorIs(t, err, cause)
}

func TestSyncer_Fetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	client.EXPECT().GetPatch(ctx, 1).Return(patch.Record{ID: 1, State: "new"}, nil)
	client.EXPECT().GetPatch(ctx, 2).Return(patch.Record{ID: 2, State: "accepted"}, nil)

	s := patchwork.NewSyncer(client, discardLogger())
	records, err := s.Fetch(ctx, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Known records avoid a second GET.
	rec, err := s.PushState(ctx, 2, core.StateAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.ID)
}

func TestSyncer_FetchMbox(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockPatchworkClient(ctrl)
	ctx := context.Background()
	p := patch.New(patch.Record{ID: 5, Name: "[PATCH] x", Mbox: "https://pw.example.com/patch/5/mbox/"})

	client.EXPECT().GetMbox(ctx, "https://pw.example.com/patch/5/mbox/").Return("From: a@example.com\n\nbody\n", nil).Times(1)

	s := patchwork.NewSyncer(client, discardLogger())
	require.NoError(t, s.FetchMbox(ctx, p))
	require.NoError(t, s.FetchMbox(ctx, p), "a fetched mbox is not downloaded again")

	mbox, ok := p.Mbox()
	assert.True(t, ok)
	assert.Contains(t, mbox, "body")

	missing := patch.New(patch.Record{ID: 6})
	err := s.FetchMbox(ctx, missing)
	assert.True(t, patchwork.IsNotFound(err))
}
