package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// VoteType is a user's trust judgement on a single question.
type VoteType string

const (
	VoteTrust    VoteType = "trust"
	VoteDistrust VoteType = "distrust"
	// VoteNone marks the absence of a prior vote.
	VoteNone VoteType = ""
)

// Valid reports whether the vote is one of the castable types.
func (v VoteType) Valid() bool {
	return v == VoteTrust || v == VoteDistrust
}

// QuestionKey identifies one question for voting: the quiz content id plus
// the question's position within it.
type QuestionKey struct {
	FileID string
	Index  int
}

var unsafeDocIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// DocID derives the stable store document id for the question's tally.
func (k QuestionKey) DocID() string {
	safe := strings.TrimSuffix(k.FileID, ".json")
	safe = unsafeDocIDChars.ReplaceAllString(safe, "_")
	return fmt.Sprintf("%s_q_%d", safe, k.Index)
}

// VoteTally is the aggregate vote counter pair for one question.
type VoteTally struct {
	Positive int `json:"positiveVotes"`
	Total    int `json:"totalVotes"`
}

// ApplyVote computes the tally after voter casts vote given their prior vote.
// It returns changed=false when the prior vote equals the new one, in which
// case the tally is returned untouched. A vote change keeps Total constant;
// a first-time vote increments it. Counters are clamped at zero.
func ApplyVote(tally VoteTally, prior, vote VoteType) (VoteTally, bool) {
	if prior == vote {
		return tally, false
	}
	if prior != VoteNone {
		if prior == VoteTrust {
			tally.Positive--
		}
	} else {
		tally.Total++
	}
	if vote == VoteTrust {
		tally.Positive++
	}
	if tally.Positive < 0 {
		tally.Positive = 0
	}
	if tally.Total < 0 {
		tally.Total = 0
	}
	return tally, true
}

// TrustScore is the percentage of positive votes, rounded to one decimal.
// A tally with no votes scores zero.
func (t VoteTally) TrustScore() float64 {
	if t.Total <= 0 {
		return 0
	}
	return math.Round(float64(t.Positive)/float64(t.Total)*1000) / 10
}

// Elevated reports whether the crowd signal is strong enough to display the
// question as trusted.
func (t VoteTally) Elevated() bool {
	return t.Total > 10 && t.TrustScore() > 70
}

// VoteResult is the tally view returned to callers after a vote or lookup.
type VoteResult struct {
	Positive int      `json:"positiveVotes"`
	Total    int      `json:"totalVotes"`
	UserVote VoteType `json:"userVote,omitempty"`
	Score    float64  `json:"score"`
}

// ResultFor builds a VoteResult from a tally and the caller's own vote.
func ResultFor(tally VoteTally, userVote VoteType) VoteResult {
	return VoteResult{
		Positive: tally.Positive,
		Total:    tally.Total,
		UserVote: userVote,
		Score:    tally.TrustScore(),
	}
}
