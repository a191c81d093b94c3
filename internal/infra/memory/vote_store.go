package memory

import (
	"context"
	"sync"

	"quizesch/internal/domain"
)

// VoteStore keeps vote tallies and per-voter records in process memory. The
// single mutex makes the tally read-modify-write and the voter record update
// one atomic step, which is what keeps concurrent voters from losing
// increments.
type VoteStore struct {
	mu      sync.Mutex
	tallies map[domain.QuestionKey]domain.VoteTally
	voters  map[string]map[string]domain.VoteType // voterID -> docID -> vote
}

func NewVoteStore() *VoteStore {
	return &VoteStore{
		tallies: make(map[domain.QuestionKey]domain.VoteTally),
		voters:  make(map[string]map[string]domain.VoteType),
	}
}

func (s *VoteStore) RecordVote(_ context.Context, key domain.QuestionKey, voterID string, vote domain.VoteType) (domain.VoteTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docID := key.DocID()
	prior := domain.VoteNone
	if votes, ok := s.voters[voterID]; ok {
		prior = votes[docID]
	}

	tally, changed := domain.ApplyVote(s.tallies[key], prior, vote)
	if !changed {
		return tally, nil
	}

	s.tallies[key] = tally
	if s.voters[voterID] == nil {
		s.voters[voterID] = make(map[string]domain.VoteType)
	}
	s.voters[voterID][docID] = vote
	return tally, nil
}

func (s *VoteStore) GetVote(_ context.Context, key domain.QuestionKey, voterID string) (domain.VoteTally, domain.VoteType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userVote := domain.VoteNone
	if voterID != "" {
		if votes, ok := s.voters[voterID]; ok {
			userVote = votes[key.DocID()]
		}
	}
	return s.tallies[key], userVote, nil
}

func (s *VoteStore) ListTallies(context.Context) (map[domain.QuestionKey]domain.VoteTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[domain.QuestionKey]domain.VoteTally, len(s.tallies))
	for key, tally := range s.tallies {
		out[key] = tally
	}
	return out, nil
}
