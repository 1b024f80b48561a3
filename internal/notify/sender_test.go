package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/email"
	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patch/patchtest"
	"github.com/sevigo/patch-warden/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPatch() *patch.Patch {
	return patchtest.New(patchtest.Fixture{
		ID:   7,
		Name: "[PATCH 2/3] foo: fix the frobnicator",
		Cc:   []string{"Maintainer <maint@example.com>", "Operator <op@example.com>"},
	})
}

func newTestSender(t *testing.T, transport Transport, oracle core.Oracle, policy Policy) *Sender {
	t.Helper()
	tm, err := NewTemplateManager()
	require.NoError(t, err)

	s := NewSender(transport, oracle, tm, Config{
		FromName:  "Operator",
		FromEmail: "op@example.com",
		Policy:    policy,
		Signature: "Patch: {URL}",
		Branch:    "pending",
	}, testLogger())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

var requestChanges = core.Decision{Kind: core.RequestChanges, Reason: "Please split this patch."}

func TestSender_PolicySkipsReply(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle()

	s := newTestSender(t, transport, oracle, Policy{})

	for _, kind := range []core.DecisionKind{core.Accept, core.Defer, core.Skip} {
		res, err := s.Send(context.Background(), testPatch(), core.Decision{Kind: kind})
		require.NoError(t, err)
		assert.False(t, res.Required, kind)
	}
	assert.Empty(t, oracle.Asked())
}

func TestSender_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(mocks.Choose(core.AskSend, core.ChoiceSend))

	var sent *email.Message
	transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *email.Message) error {
			sent = msg
			return nil
		})

	s := newTestSender(t, transport, oracle, Policy{})
	p := testPatch()
	res, err := s.Send(context.Background(), p, requestChanges)
	require.NoError(t, err)

	assert.True(t, res.Required)
	assert.True(t, res.Delivered)
	assert.False(t, res.Duplicate)
	require.NotNil(t, sent)
	assert.Same(t, sent, res.Message)

	assert.Equal(t, "Operator <op@example.com>", sent.Get("From"))
	assert.Equal(t, "Dino Dinosaurus <dino@example.com>", sent.Get("To"))
	assert.Equal(t, "list@example.com, Maintainer <maint@example.com>", sent.Get("Cc"))
	assert.Equal(t, "Re: [PATCH 2/3] foo: fix the frobnicator", sent.Get("Subject"))
	assert.Equal(t, "<7@example.com>", sent.Get("In-Reply-To"))
	assert.Equal(t, "Wed, 01 May 2024 10:00:00 +0000", sent.Get("Date"))
	assert.True(t, strings.HasSuffix(sent.Get("Message-Id"), "@example.com>"))

	assert.Contains(t, sent.Body, "Dino Dinosaurus wrote:")
	assert.Contains(t, sent.Body, "> foo: fix the frobnicator")
	assert.Contains(t, sent.Body, "Please split this patch.")
	assert.Contains(t, sent.Body, "\n-- \nPatch: "+p.WebURL+"\n")
	assert.NotContains(t, sent.Body, URLPlaceholder)

	asked := oracle.Asked()
	require.Len(t, asked, 1)
	assert.Equal(t, 7, asked[0].Subject.PatchID)
	assert.Contains(t, asked[0].Draft, URLPlaceholder)
	assert.Equal(t, []core.Choice{core.ChoiceSend, core.ChoiceEdit, core.ChoiceAbort}, asked[0].Choices)
}

func TestSender_EditReplacesBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(
		mocks.Choose(core.AskSend, core.ChoiceEdit),
		mocks.Type(core.AskEdit, "Rewritten reply.\n\nSee {URL}\n"),
		mocks.Choose(core.AskSend, core.ChoiceSend),
	)

	var sent *email.Message
	transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *email.Message) error {
			sent = msg
			return nil
		})

	s := newTestSender(t, transport, oracle, Policy{})
	p := testPatch()
	_, err := s.Send(context.Background(), p, requestChanges)
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.Equal(t, "Rewritten reply.\n\nSee "+p.WebURL+"\n", sent.Body)

	asked := oracle.Asked()
	require.Len(t, asked, 3)
	assert.Contains(t, asked[1].Draft, "Please split this patch.")
	assert.Contains(t, asked[2].Draft, "Rewritten reply.")
}

func TestSender_EmptyEditKeepsDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(
		mocks.Choose(core.AskSend, core.ChoiceEdit),
		mocks.Type(core.AskEdit, "  \n"),
		mocks.Choose(core.AskSend, core.ChoiceAbort),
	)

	s := newTestSender(t, transport, oracle, Policy{})
	res, err := s.Send(context.Background(), testPatch(), requestChanges)
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Contains(t, res.Message.Body, "Please split this patch.")
}

func TestSender_Abort(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(mocks.Choose(core.AskSend, core.ChoiceAbort))

	s := newTestSender(t, transport, oracle, Policy{})
	res, err := s.Send(context.Background(), testPatch(), core.Decision{Kind: core.Reject, Reason: "Not needed."})
	require.NoError(t, err)

	assert.True(t, res.Required)
	assert.True(t, res.Aborted)
	assert.False(t, res.Delivered)
}

func TestSender_RetryAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(
		mocks.Choose(core.AskSend, core.ChoiceSend),
		mocks.Choose(core.AskSendFailed, core.ChoiceRetry),
	)

	gomock.InOrder(
		transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("connection refused")),
		transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
	)

	s := newTestSender(t, transport, oracle, Policy{})
	res, err := s.Send(context.Background(), testPatch(), requestChanges)
	require.NoError(t, err)
	assert.True(t, res.Delivered)

	asked := oracle.Asked()
	require.Len(t, asked, 2)
	var te *TransportError
	require.ErrorAs(t, asked[1].Err, &te)
	assert.Contains(t, te.Error(), "connection refused")
}

func TestSender_GiveUpAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(
		mocks.Choose(core.AskSend, core.ChoiceSend),
		mocks.Choose(core.AskSendFailed, core.ChoiceAbort),
	)

	transport.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(&TransportError{Transport: "smtp", Err: errors.New("550 mailbox unavailable")})

	s := newTestSender(t, transport, oracle, Policy{})
	res, err := s.Send(context.Background(), testPatch(), requestChanges)
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.False(t, res.Delivered)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "550")
}

func TestSender_DeliversOncePerDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	oracle := mocks.NewScriptedOracle(
		mocks.Choose(core.AskSend, core.ChoiceSend),
		mocks.Choose(core.AskSend, core.ChoiceSend),
	)

	transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	s := newTestSender(t, transport, oracle, Policy{Accept: true})
	p := testPatch()

	first, err := s.Send(context.Background(), p, requestChanges)
	require.NoError(t, err)
	require.True(t, first.Delivered)

	again, err := s.Send(context.Background(), p, requestChanges)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Same(t, first.Message, again.Message)

	// A different decision on the same patch is a new reply.
	accepted, err := s.Send(context.Background(), p, core.Decision{Kind: core.Accept})
	require.NoError(t, err)
	assert.True(t, accepted.Delivered)
	assert.False(t, accepted.Duplicate)
	assert.Contains(t, accepted.Message.Body, "applied to pending")

	assert.Equal(t, 0, oracle.Remaining())
}

func TestSender_ComposeWithoutMbox(t *testing.T) {
	s := newTestSender(t, nil, nil, Policy{})
	p := patch.New(patchtest.Fixture{ID: 3}.Record())

	_, err := s.Compose(p, requestChanges)
	assert.Error(t, err)
}

func TestPolicy_Requires(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		kind   core.DecisionKind
		want   bool
	}{
		{"request changes always", Policy{}, core.RequestChanges, true},
		{"reject always", Policy{}, core.Reject, true},
		{"accept off", Policy{}, core.Accept, false},
		{"accept on", Policy{Accept: true}, core.Accept, true},
		{"defer off", Policy{Accept: true}, core.Defer, false},
		{"defer on", Policy{Defer: true}, core.Defer, true},
		{"skip never", Policy{Accept: true, Defer: true}, core.Skip, false},
		{"abort never", Policy{Accept: true, Defer: true}, core.Abort, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Requires(tt.kind))
		})
	}
}
