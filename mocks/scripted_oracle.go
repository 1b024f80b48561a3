package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/sevigo/patch-warden/internal/core"
)

// Step is one scripted answer. An empty Kind matches any question.
type Step struct {
	Kind   core.QuestionKind
	Answer core.Answer
}

// Choose answers a question of kind with choice.
func Choose(kind core.QuestionKind, choice core.Choice) Step {
	return Step{Kind: kind, Answer: core.Answer{Choice: choice}}
}

// Type answers a free text question of kind.
func Type(kind core.QuestionKind, text string) Step {
	return Step{Kind: kind, Answer: core.Answer{Text: text}}
}

// ScriptedOracle answers questions from a fixed script and records what was
// asked. It fails loudly on a question the script did not expect.
type ScriptedOracle struct {
	mu    sync.Mutex
	steps []Step
	asked []core.Question
}

func NewScriptedOracle(steps ...Step) *ScriptedOracle {
	return &ScriptedOracle{steps: steps}
}

func (o *ScriptedOracle) Decide(_ context.Context, q core.Question) (core.Answer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.asked = append(o.asked, q)
	if len(o.steps) == 0 {
		return core.Answer{}, fmt.Errorf("script exhausted: unexpected %s question for patch %d", q.Kind, q.Subject.PatchID)
	}

	step := o.steps[0]
	if step.Kind != "" && step.Kind != q.Kind {
		return core.Answer{}, fmt.Errorf("script expected a %s question, got %s for patch %d", step.Kind, q.Kind, q.Subject.PatchID)
	}
	if step.Answer.Choice != "" && len(q.Choices) > 0 && !q.Allows(step.Answer.Choice) {
		return core.Answer{}, fmt.Errorf("choice %q not offered for %s question (offered %v)", step.Answer.Choice, q.Kind, q.Choices)
	}
	o.steps = o.steps[1:]
	return step.Answer, nil
}

// Asked returns the questions asked so far.
func (o *ScriptedOracle) Asked() []core.Question {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]core.Question(nil), o.asked...)
}

// AskedKinds returns the kinds of the questions asked so far.
func (o *ScriptedOracle) AskedKinds() []core.QuestionKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	kinds := make([]core.QuestionKind, 0, len(o.asked))
	for _, q := range o.asked {
		kinds = append(kinds, q.Kind)
	}
	return kinds
}

// Remaining is the number of unused steps.
func (o *ScriptedOracle) Remaining() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.steps)
}
