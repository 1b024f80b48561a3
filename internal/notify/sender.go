// Package notify composes and delivers the reply mail for a review
// decision.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/email"
	"github.com/sevigo/patch-warden/internal/patch"
)

// URLPlaceholder in a signature is replaced with the patch URL on delivery.
const URLPlaceholder = "{URL}"

const signatureSeparator = "\n-- \n"

// Config configures a Sender.
type Config struct {
	FromName  string
	FromEmail string
	Policy    Policy
	Signature string
	Variant   Variant
	// Branch is mentioned in acceptance replies.
	Branch string
}

// Result describes what happened to a reply.
type Result struct {
	// Required is false when the policy asked for no reply.
	Required  bool
	Delivered bool
	// Duplicate means the reply had already been delivered; nothing was sent.
	Duplicate bool
	// Aborted means the operator chose not to send.
	Aborted bool
	Message *email.Message
	// Err is the last delivery failure when the operator gave up.
	Err error
}

type deliveryKey struct {
	patchID int
	kind    core.DecisionKind
}

// Sender runs the Send/Edit/Abort flow and remembers delivered replies, so
// retrying a decision never sends the same reply twice.
type Sender struct {
	transport Transport
	oracle    core.Oracle
	templates *TemplateManager
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time

	delivered map[deliveryKey]*email.Message
}

// NewSender returns a Sender.
func NewSender(transport Transport, oracle core.Oracle, templates *TemplateManager, cfg Config, logger *slog.Logger) *Sender {
	if cfg.Variant == "" {
		cfg.Variant = DefaultVariant
	}
	return &Sender{
		transport: transport,
		oracle:    oracle,
		templates: templates,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		delivered: make(map[deliveryKey]*email.Message),
	}
}

// Required reports whether a decision warrants a reply.
func (s *Sender) Required(kind core.DecisionKind) bool {
	return s.cfg.Policy.Requires(kind)
}

// Send composes the reply for decision and lets the operator send, edit or
// abort it.
func (s *Sender) Send(ctx context.Context, p *patch.Patch, decision core.Decision) (Result, error) {
	if !s.Required(decision.Kind) {
		return Result{}, nil
	}

	key := deliveryKey{patchID: p.ID, kind: decision.Kind}
	if msg, ok := s.delivered[key]; ok {
		s.logger.Debug("reply already delivered", "patch_id", p.ID, "decision", decision.Kind)
		return Result{Required: true, Delivered: true, Duplicate: true, Message: msg}, nil
	}

	draft, err := s.Compose(p, decision)
	if err != nil {
		return Result{Required: true}, err
	}

	for {
		ans, err := s.oracle.Decide(ctx, core.Question{
			Kind:    core.AskSend,
			Subject: p.Subject(),
			Choices: []core.Choice{core.ChoiceSend, core.ChoiceEdit, core.ChoiceAbort},
			Draft:   draft.String(),
		})
		if err != nil {
			return Result{Required: true}, err
		}

		switch ans.Choice {
		case core.ChoiceAbort:
			s.logger.Info("reply not sent", "patch_id", p.ID)
			return Result{Required: true, Aborted: true, Message: draft}, nil
		case core.ChoiceEdit:
			edited, err := s.oracle.Decide(ctx, core.Question{
				Kind:    core.AskEdit,
				Subject: p.Subject(),
				Draft:   draft.Body,
			})
			if err != nil {
				return Result{Required: true}, err
			}
			if ans := edited.Text; strings.TrimSpace(ans) != "" {
				draft.Body = ans
			}
		case core.ChoiceSend:
			return s.deliver(ctx, p, key, draft)
		default:
			return Result{Required: true}, fmt.Errorf("unexpected choice %q", ans.Choice)
		}
	}
}

func (s *Sender) deliver(ctx context.Context, p *patch.Patch, key deliveryKey, draft *email.Message) (Result, error) {
	msg := s.finalize(p, draft)

	for {
		err := s.transport.Send(ctx, msg)
		if err == nil {
			s.delivered[key] = msg
			return Result{Required: true, Delivered: true, Message: msg}, nil
		}

		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Transport: "mail", Err: err}
		}

		ans, qerr := s.oracle.Decide(ctx, core.Question{
			Kind:    core.AskSendFailed,
			Subject: p.Subject(),
			Choices: []core.Choice{core.ChoiceRetry, core.ChoiceAbort},
			Err:     err,
		})
		if qerr != nil {
			return Result{Required: true, Err: err}, qerr
		}
		if ans.Choice != core.ChoiceRetry {
			return Result{Required: true, Aborted: true, Message: msg, Err: err}, nil
		}
	}
}

// Compose builds the reply draft. The signature keeps its URL placeholder
// until delivery.
func (s *Sender) Compose(p *patch.Patch, decision core.Decision) (*email.Message, error) {
	reply, err := p.ReplyMessage(s.cfg.FromName, s.cfg.FromEmail)
	if err != nil {
		return nil, err
	}

	state, _ := decision.Kind.TargetState()
	text, err := s.templates.Render(state, s.cfg.Variant, TemplateData{
		Decision: decision,
		Reason:   strings.TrimSpace(decision.Reason),
		State:    state,
		Title:    p.CleanTitle,
		PatchID:  p.ID,
		Branch:   s.cfg.Branch,
		URL:      p.WebURL,
	})
	if err != nil {
		return nil, err
	}

	reply.Body += text
	if s.cfg.Signature != "" {
		reply.Body += signatureSeparator + strings.TrimRight(s.cfg.Signature, "\n") + "\n"
	}
	return reply, nil
}

// finalize stamps the delivery headers and resolves the URL placeholder.
func (s *Sender) finalize(p *patch.Patch, draft *email.Message) *email.Message {
	msg := draft.Clone()
	msg.Body = strings.ReplaceAll(msg.Body, URLPlaceholder, p.WebURL)
	msg.Set("Date", email.FormatDate(s.now()))
	msg.Set("Message-Id", email.NewMessageID(email.DomainOf(s.cfg.FromEmail)))
	return msg
}
