package polls

import "errors"

var (
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidChoice means the submitted choice is missing or belongs to
	// another question.
	ErrInvalidChoice = errors.New("invalid choice")
	ErrNoVote        = errors.New("no vote cast")
)
