package app

import (
	"context"

	"quizesch/internal/domain"
)

// VoteStore holds the vote tallies and per-voter records. RecordVote must
// apply the tally read-modify-write and the voter record as one atomic
// operation so a tally can never drift from its voter records.
type VoteStore interface {
	RecordVote(ctx context.Context, key domain.QuestionKey, voterID string, vote domain.VoteType) (domain.VoteTally, error)
	// GetVote returns the tally plus the voter's prior vote, both zero-valued
	// when absent. An empty voterID skips the personal lookup.
	GetVote(ctx context.Context, key domain.QuestionKey, voterID string) (domain.VoteTally, domain.VoteType, error)
}

// TallyLister enumerates all known tallies, used by the supervision sweep.
type TallyLister interface {
	ListTallies(ctx context.Context) (map[domain.QuestionKey]domain.VoteTally, error)
}

// IdentityProvider supplies the opaque stable voter id for this client.
// An empty id means identity is still pending.
type IdentityProvider interface {
	VoterID(ctx context.Context) (string, error)
}

// StaticIdentity is an IdentityProvider with a fixed voter id.
type StaticIdentity string

func (s StaticIdentity) VoterID(context.Context) (string, error) {
	return string(s), nil
}

// TrustService aggregates crowd trust signals per question with
// last-vote-wins-per-user semantics.
type TrustService struct {
	votes    VoteStore
	identity IdentityProvider
}

func NewTrustService(votes VoteStore, identity IdentityProvider) *TrustService {
	return &TrustService{votes: votes, identity: identity}
}

// RecordVote casts or changes the caller's vote on a question. Voting
// requires an established identity.
func (s *TrustService) RecordVote(ctx context.Context, key domain.QuestionKey, vote domain.VoteType) (domain.VoteResult, error) {
	if !vote.Valid() {
		return domain.VoteResult{}, domain.ErrInvalidVote
	}
	voterID, err := s.identity.VoterID(ctx)
	if err != nil {
		return domain.VoteResult{}, err
	}
	if voterID == "" {
		return domain.VoteResult{}, domain.ErrIdentityPending
	}

	tally, err := s.votes.RecordVote(ctx, key, voterID, vote)
	if err != nil {
		return domain.VoteResult{}, err
	}
	return domain.ResultFor(tally, vote), nil
}

// GetVote reads the tally plus the caller's own prior vote. It works without
// an identity; the personal vote is simply absent then.
func (s *TrustService) GetVote(ctx context.Context, key domain.QuestionKey) (domain.VoteResult, error) {
	voterID := ""
	if s.identity != nil {
		if id, err := s.identity.VoterID(ctx); err == nil {
			voterID = id
		}
	}
	tally, userVote, err := s.votes.GetVote(ctx, key, voterID)
	if err != nil {
		return domain.VoteResult{}, err
	}
	return domain.ResultFor(tally, userVote), nil
}
