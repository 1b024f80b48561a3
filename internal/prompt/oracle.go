// Package prompt asks the operator in the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sevigo/patch-warden/internal/core"
)

// Options configures the terminal oracle.
type Options struct {
	Theme ThemeName
	// Editor is the command used to edit reply drafts. An empty editor edits
	// inline.
	Editor string
	// Accessible replaces the interactive widgets with plain line prompts.
	Accessible bool
	In         io.Reader
	Out        io.Writer
}

// Oracle is the production core.Oracle.
type Oracle struct {
	opts   Options
	styles styles
	logger *slog.Logger
}

// New returns a terminal oracle.
func New(opts Options, logger *slog.Logger) *Oracle {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Oracle{opts: opts, styles: getTheme(opts.Theme), logger: logger}
}

var choiceLabels = map[core.Choice]string{
	core.ChoiceAccept:         "Accept",
	core.ChoiceRequestChanges: "Request changes",
	core.ChoiceDefer:          "Defer",
	core.ChoiceReject:         "Reject",
	core.ChoiceSkip:           "Skip",
	core.ChoiceAbort:          "Abort",
	core.ChoiceRetry:          "Retry",
	core.ChoiceSend:           "Send",
	core.ChoiceEdit:           "Edit",
	core.ChoiceAll:            "Commit all",
	core.ChoiceIndividually:   "Commit individually",
	core.ChoiceYes:            "Yes",
	core.ChoiceNo:             "No",
}

var titles = map[core.QuestionKind]string{
	core.AskConflict:   "The patch does not apply",
	core.AskDecision:   "Decision",
	core.AskSend:       "Send the reply?",
	core.AskSendFailed: "Sending failed",
	core.AskBatch:      "Finalize the applied patches",
	core.AskCommit:     "Commit this patch?",
}

func label(c core.Choice) string {
	if l, ok := choiceLabels[c]; ok {
		return l
	}
	return string(c)
}

func (o *Oracle) Decide(ctx context.Context, q core.Question) (core.Answer, error) {
	fmt.Fprint(o.opts.Out, o.render(q))

	switch q.Kind {
	case core.AskReason:
		return o.text(ctx, q.Prompt, "")
	case core.AskEdit:
		return o.edit(ctx, q)
	default:
		return o.choose(ctx, q)
	}
}

// render describes the question before the widget is shown.
func (o *Oracle) render(q core.Question) string {
	var b strings.Builder
	if q.Subject.PatchID != 0 {
		b.WriteString(o.styles.header.Render(fmt.Sprintf("[%d] %s", q.Subject.PatchID, q.Subject.Title)))
		b.WriteString("\n")

		meta := "state: " + string(q.Subject.State)
		if q.Subject.Delegate != "" {
			meta += ", delegate: " + q.Subject.Delegate
		}
		b.WriteString(o.styles.inactive.Render(meta))
		b.WriteString("\n")
		for _, d := range q.Subject.Details {
			b.WriteString(o.styles.detail.Render(d))
			b.WriteString("\n")
		}
	}
	if q.Err != nil {
		b.WriteString(o.styles.error.Render("error: " + q.Err.Error()))
		b.WriteString("\n")
	}
	for _, c := range q.Commits {
		b.WriteString(o.styles.commit.Render(c.Oneline()))
		b.WriteString("\n")
	}
	if q.Kind == core.AskSend && q.Draft != "" {
		b.WriteString(o.styles.draft.Render(strings.TrimRight(q.Draft, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}

func (o *Oracle) form(fields ...huh.Field) *huh.Form {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithAccessible(o.opts.Accessible).
		WithInput(o.opts.In).
		WithOutput(o.opts.Out)
	if o.opts.Theme != ThemePlain {
		form = form.WithTheme(huh.ThemeCharm())
	}
	return form
}

func (o *Oracle) choose(ctx context.Context, q core.Question) (core.Answer, error) {
	if len(q.Choices) == 0 {
		return core.Answer{}, fmt.Errorf("%s question offers no choices", q.Kind)
	}

	options := make([]huh.Option[core.Choice], 0, len(q.Choices))
	for _, c := range q.Choices {
		options = append(options, huh.NewOption(label(c), c))
	}

	title := q.Prompt
	if title == "" {
		title = titles[q.Kind]
	}
	choice := q.Choices[0]
	sel := huh.NewSelect[core.Choice]().
		Title(o.styles.prompt.Render(title)).
		Options(options...).
		Value(&choice)

	if err := o.form(sel).RunWithContext(ctx); err != nil {
		return o.aborted(q, err)
	}
	return core.Answer{Choice: choice}, nil
}

func (o *Oracle) text(ctx context.Context, title, value string) (core.Answer, error) {
	text := value
	field := huh.NewText().
		Title(o.styles.prompt.Render(title)).
		Value(&text)

	if err := o.form(field).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return core.Answer{Text: value}, nil
		}
		return core.Answer{}, err
	}
	return core.Answer{Text: text}, nil
}

func (o *Oracle) edit(ctx context.Context, q core.Question) (core.Answer, error) {
	if strings.TrimSpace(o.opts.Editor) == "" {
		return o.text(ctx, "Edit the reply", q.Draft)
	}
	text, err := o.runEditor(ctx, q.Draft)
	if err != nil {
		o.logger.Warn("editor failed, keeping the draft", "editor", o.opts.Editor, "error", err)
		return core.Answer{Text: q.Draft}, nil
	}
	return core.Answer{Text: text}, nil
}

// runEditor opens draft in the configured editor and returns the result.
func (o *Oracle) runEditor(ctx context.Context, draft string) (string, error) {
	f, err := os.CreateTemp("", "patch-warden-reply-*.eml")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(draft); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	args := strings.Fields(o.opts.Editor)
	cmd := exec.CommandContext(ctx, args[0], append(args[1:], f.Name())...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", args[0], err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// aborted maps an interrupted prompt to the Abort choice when it is offered.
func (o *Oracle) aborted(q core.Question, err error) (core.Answer, error) {
	if !errors.Is(err, huh.ErrUserAborted) {
		return core.Answer{}, err
	}
	if q.Allows(core.ChoiceAbort) {
		return core.Answer{Choice: core.ChoiceAbort}, nil
	}
	if q.Allows(core.ChoiceNo) {
		return core.Answer{Choice: core.ChoiceNo}, nil
	}
	return core.Answer{}, err
}
