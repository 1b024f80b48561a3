package core

import "context"

//go:generate mockgen -destination=../../mocks/mock_oracle.go -package=mocks . Oracle

// Choice is one of the options offered to the operator at a decision point.
type Choice string

const (
	ChoiceRetry        Choice = "retry"
	ChoiceSkip         Choice = "skip"
	ChoiceAbort        Choice = "abort"
	ChoiceSend         Choice = "send"
	ChoiceEdit         Choice = "edit"
	ChoiceAll          Choice = "all"
	ChoiceIndividually Choice = "individually"
	ChoiceYes          Choice = "yes"
	ChoiceNo           Choice = "no"

	ChoiceAccept         = Choice(Accept)
	ChoiceRequestChanges = Choice(RequestChanges)
	ChoiceDefer          = Choice(Defer)
	ChoiceReject         = Choice(Reject)
)

// QuestionKind identifies the decision point a Question belongs to.
type QuestionKind string

const (
	// AskConflict follows a failed apply: Retry, Skip or Abort.
	AskConflict QuestionKind = "conflict"
	// AskDecision asks for the review verdict of an applied patch.
	AskDecision QuestionKind = "decision"
	// AskReason asks for free text; Answer.Text carries it.
	AskReason QuestionKind = "reason"
	// AskSend offers a reply draft: Send, Edit or Abort.
	AskSend QuestionKind = "send"
	// AskEdit asks for a revised draft; Answer.Text carries it.
	AskEdit QuestionKind = "edit"
	// AskSendFailed follows a failed delivery: Retry or Abort.
	AskSendFailed QuestionKind = "send-failed"
	// AskBatch asks how to finalize the applied commits: All, Individually or Abort.
	AskBatch QuestionKind = "batch"
	// AskCommit confirms a single commit: Yes or No.
	AskCommit QuestionKind = "commit"
)

// Subject describes the patch a question is about.
type Subject struct {
	PatchID  int
	Title    string
	State    State
	Delegate string
	// Details holds extra lines to show, such as the diffstat.
	Details []string
}

// Question is what the workflow asks the operator.
type Question struct {
	Kind    QuestionKind
	Subject Subject
	Choices []Choice
	// Err is the failure that led to the question, if any.
	Err error
	// Draft is the message under review for AskSend and AskEdit.
	Draft string
	// Commits lists the commits a batch question is about.
	Commits []Commit
	Prompt  string
}

// Answer is the operator's reply.
type Answer struct {
	Choice Choice
	Text   string
}

// Oracle makes the decisions the workflow cannot make alone. The terminal
// implementation prompts the operator; tests supply a scripted one.
type Oracle interface {
	Decide(ctx context.Context, q Question) (Answer, error)
}

// Allows reports whether c is among the offered choices.
func (q Question) Allows(c Choice) bool {
	for _, choice := range q.Choices {
		if choice == c {
			return true
		}
	}
	return false
}
