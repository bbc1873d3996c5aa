package poll

import (
	"fmt"
	"strings"
	"time"

	"github.com/arnold-1324/twitterClone-sub000/internal/apperr"
	"github.com/arnold-1324/twitterClone-sub000/internal/model"
)

const maxOptions = 12

// Spec is the client-supplied definition of a new poll.
type Spec struct {
	Question    string     `json:"question"`
	Options     []string   `json:"options"`
	MultiSelect bool       `json:"multiSelect"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// New validates a poll spec and builds the embedded poll document. A fresh
// poll is open with zero votes.
func New(spec Spec) (*model.Poll, error) {
	question := strings.TrimSpace(spec.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: poll question is required", apperr.ErrValidation)
	}
	if len(spec.Options) < 2 {
		return nil, fmt.Errorf("%w: poll needs at least 2 options", apperr.ErrValidation)
	}
	if len(spec.Options) > maxOptions {
		return nil, fmt.Errorf("%w: poll allows at most %d options", apperr.ErrValidation, maxOptions)
	}

	options := make([]model.PollOption, 0, len(spec.Options))
	for _, text := range spec.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: poll option text is required", apperr.ErrValidation)
		}
		options = append(options, model.PollOption{Text: text, Votes: []string{}})
	}

	return &model.Poll{
		Question:    question,
		Options:     options,
		MultiSelect: spec.MultiSelect,
		ExpiresAt:   spec.ExpiresAt,
	}, nil
}

// Expired reports whether the poll's expiry time has passed. Expiry is a
// predicate checked at vote time, not a stored state transition.
func Expired(p *model.Poll, now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Vote applies the voter's selection with replace semantics: the voter is
// first removed from every option's vote set, then the new selection is
// applied, so a repeat vote changes the choice rather than accumulating.
// TotalVotes is recomputed in the same mutation.
func Vote(p *model.Poll, voterID string, selection []int, now time.Time) error {
	if p.Closed {
		return apperr.ErrPollClosed
	}
	if Expired(p, now) {
		return apperr.ErrPollExpired
	}
	if len(selection) == 0 {
		return fmt.Errorf("%w: empty selection", apperr.ErrValidation)
	}
	if !p.MultiSelect && len(selection) > 1 {
		return fmt.Errorf("%w: poll accepts a single choice", apperr.ErrValidation)
	}

	seen := make(map[int]struct{}, len(selection))
	for _, idx := range selection {
		if idx < 0 || idx >= len(p.Options) {
			return fmt.Errorf("%w: option index %d out of range", apperr.ErrValidation, idx)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: duplicate option index %d", apperr.ErrValidation, idx)
		}
		seen[idx] = struct{}{}
	}

	for i := range p.Options {
		p.Options[i].Votes = without(p.Options[i].Votes, voterID)
	}
	for _, idx := range selection {
		p.Options[idx].Votes = append(p.Options[idx].Votes, voterID)
	}

	recount(p)
	return nil
}

// Close marks the poll closed. Idempotent; there is no un-close.
func Close(p *model.Poll) {
	p.Closed = true
}

func recount(p *model.Poll) {
	total := 0
	for i := range p.Options {
		total += len(p.Options[i].Votes)
	}
	p.TotalVotes = total
}

func without(votes []string, voterID string) []string {
	out := votes[:0]
	for _, id := range votes {
		if id != voterID {
			out = append(out, id)
		}
	}
	return out
}
