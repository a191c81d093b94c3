package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"quizesch/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	tallyKeyPrefix    = "quizesch:votes:"
	userVoteKeyPrefix = "quizesch:uservote:"

	// maxVoteRetries bounds the optimistic transaction retry loop under
	// write contention on the same question.
	maxVoteRetries = 5
)

// VoteStore backs the trust score aggregator with Redis. Each question's
// tally lives in a hash that also carries the quiz file and index so tallies
// can be enumerated for the supervision sweep; each voter's vote is a
// separate key watched inside the same transaction.
type VoteStore struct {
	client *redis.Client
}

func NewVoteStore(client *redis.Client) *VoteStore {
	return &VoteStore{client: client}
}

func tallyKey(key domain.QuestionKey) string {
	return tallyKeyPrefix + key.DocID()
}

func userVoteKey(key domain.QuestionKey, voterID string) string {
	return userVoteKeyPrefix + voterID + ":" + key.DocID()
}

// RecordVote runs the tally read-modify-write and the voter record update as
// one WATCH-guarded transaction, retried when a concurrent voter touches the
// same question first. Both writes land together or not at all.
func (s *VoteStore) RecordVote(ctx context.Context, key domain.QuestionKey, voterID string, vote domain.VoteType) (domain.VoteTally, error) {
	tKey := tallyKey(key)
	uKey := userVoteKey(key, voterID)

	var result domain.VoteTally
	txn := func(tx *redis.Tx) error {
		tally, err := readTally(ctx, tx, tKey)
		if err != nil {
			return err
		}
		priorRaw, err := tx.Get(ctx, uKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		prior := domain.VoteType(priorRaw)

		next, changed := domain.ApplyVote(tally, prior, vote)
		result = next
		if !changed {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, tKey,
				"positiveVotes", next.Positive,
				"totalVotes", next.Total,
				"quizFile", key.FileID,
				"qIndex", key.Index,
			)
			pipe.Set(ctx, uKey, string(vote), 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxVoteRetries; attempt++ {
		err := s.client.Watch(ctx, txn, tKey, uKey)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.VoteTally{}, fmt.Errorf("record vote: %w", err)
	}
	return domain.VoteTally{}, domain.ErrVoteConflict
}

func (s *VoteStore) GetVote(ctx context.Context, key domain.QuestionKey, voterID string) (domain.VoteTally, domain.VoteType, error) {
	tally, err := readTally(ctx, s.client, tallyKey(key))
	if err != nil {
		return domain.VoteTally{}, domain.VoteNone, fmt.Errorf("get vote: %w", err)
	}

	userVote := domain.VoteNone
	if voterID != "" {
		raw, err := s.client.Get(ctx, userVoteKey(key, voterID)).Result()
		if err != nil && err != redis.Nil {
			return domain.VoteTally{}, domain.VoteNone, fmt.Errorf("get user vote: %w", err)
		}
		userVote = domain.VoteType(raw)
	}
	return tally, userVote, nil
}

// ListTallies scans every tally hash, reconstructing the question keys from
// the quizFile/qIndex fields stored alongside the counters.
func (s *VoteStore) ListTallies(ctx context.Context) (map[domain.QuestionKey]domain.VoteTally, error) {
	out := make(map[domain.QuestionKey]domain.VoteTally)
	iter := s.client.Scan(ctx, 0, tallyKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		fields, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("list tallies: %w", err)
		}
		fileID := fields["quizFile"]
		index, err := strconv.Atoi(fields["qIndex"])
		if fileID == "" || err != nil {
			continue
		}
		out[domain.QuestionKey{FileID: fileID, Index: index}] = tallyFromFields(fields)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}
	return out, nil
}

type hashGetter interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readTally(ctx context.Context, c hashGetter, key string) (domain.VoteTally, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.VoteTally{}, err
	}
	return tallyFromFields(fields), nil
}

func tallyFromFields(fields map[string]string) domain.VoteTally {
	tally := domain.VoteTally{}
	if v, err := strconv.Atoi(fields["positiveVotes"]); err == nil {
		tally.Positive = v
	}
	if v, err := strconv.Atoi(fields["totalVotes"]); err == nil {
		tally.Total = v
	}
	return tally
}
