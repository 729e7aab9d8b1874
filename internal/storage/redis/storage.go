package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Multi-key writes run as WATCH/MULTI transactions on the keys whose
// state they check, so a concurrent writer forces a retry.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Student record operations

func (s *Storage) CreateStudent(ctx context.Context, rec *model.StudentRecord) error {
	idxKey := studentIDIndexKey(rec.StudentID)

	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, idxKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrStudentIDTaken
		}

		id, err := s.client.Incr(ctx, studentSeqKey()).Result()
		if err != nil {
			return err
		}
		rec.ID = id
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, studentKey(id), data, 0)
			pipe.Set(ctx, idxKey, id, 0)
			return nil
		})
		return err
	}, idxKey)
}

func (s *Storage) GetStudent(ctx context.Context, id int64) (*model.StudentRecord, error) {
	return getStudent(ctx, s.client, id)
}

func (s *Storage) GetStudentByStudentID(ctx context.Context, studentID string) (*model.StudentRecord, error) {
	id, err := s.client.Get(ctx, studentIDIndexKey(studentID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrStudentNotFound
		}
		return nil, err
	}
	return getStudent(ctx, s.client, id)
}

func (s *Storage) DeleteStudent(ctx context.Context, id int64) (*int64, error) {
	var deleted *int64

	err := s.watch(ctx, func(tx *redis.Tx) error {
		deleted = nil
		rec, err := getStudent(ctx, tx, id)
		if err != nil {
			return err
		}

		var acct *model.Account
		if rec.LinkedAccountID != nil {
			acct, err = getAccount(ctx, tx, *rec.LinkedAccountID)
			if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, studentKey(id), studentIDIndexKey(rec.StudentID))
			pipe.SRem(ctx, linkedStudentsKey(), id)
			if acct != nil {
				pipe.Del(ctx,
					accountKey(acct.ID),
					emailIndexKey(model.NormalizeEmail(acct.Email)),
					handleIndexKey(acct.Handle),
				)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if acct != nil {
			accountID := acct.ID
			deleted = &accountID
		}
		return nil
	}, studentKey(id))
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, acct *model.Account) error {
	emailKey := emailIndexKey(model.NormalizeEmail(acct.Email))
	handleKey := handleIndexKey(model.NormalizeHandle(acct.Handle))

	return s.watch(ctx, func(tx *redis.Tx) error {
		if err := checkAccountUnique(ctx, tx, emailKey, handleKey); err != nil {
			return err
		}
		if err := s.assignAccountID(ctx, acct); err != nil {
			return err
		}
		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, accountKey(acct.ID), data, 0)
			pipe.Set(ctx, emailKey, acct.ID, 0)
			pipe.Set(ctx, handleKey, acct.ID, 0)
			return nil
		})
		return err
	}, emailKey, handleKey)
}

func (s *Storage) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return getAccount(ctx, s.client, id)
}

func (s *Storage) GetAccountByHandle(ctx context.Context, handle string) (*model.Account, error) {
	id, err := s.client.Get(ctx, handleIndexKey(model.NormalizeHandle(handle))).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	return getAccount(ctx, s.client, id)
}

func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Exists(ctx, emailIndexKey(model.NormalizeEmail(email))).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) HandleExists(ctx context.Context, handle string) (bool, error) {
	n, err := s.client.Exists(ctx, handleIndexKey(model.NormalizeHandle(handle))).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) UpdateAccountProgress(ctx context.Context, id int64, level, experiencePoints int) (*model.Account, error) {
	var updated *model.Account

	err := s.watch(ctx, func(tx *redis.Tx) error {
		acct, err := getAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		acct.Level = level
		acct.ExperiencePoints = experiencePoints
		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, accountKey(id), data, 0)
			return nil
		})
		updated = acct
		return err
	}, accountKey(id))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) CreateLinkedAccount(ctx context.Context, studentRecordID int64, acct *model.Account) error {
	recKey := studentKey(studentRecordID)
	emailKey := emailIndexKey(model.NormalizeEmail(acct.Email))
	handleKey := handleIndexKey(model.NormalizeHandle(acct.Handle))

	return s.watch(ctx, func(tx *redis.Tx) error {
		rec, err := getStudent(ctx, tx, studentRecordID)
		if err != nil {
			return err
		}
		if rec.IsLinked() {
			return model.ErrAlreadyLinked
		}
		if err := checkAccountUnique(ctx, tx, emailKey, handleKey); err != nil {
			return err
		}
		if err := s.assignAccountID(ctx, acct); err != nil {
			return err
		}

		linked := acct.ID
		rec.LinkedAccountID = &linked
		rec.UpdatedAt = acct.CreatedAt
		acctData, err := json.Marshal(acct)
		if err != nil {
			return err
		}
		recData, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, accountKey(acct.ID), acctData, 0)
			pipe.Set(ctx, emailKey, acct.ID, 0)
			pipe.Set(ctx, handleKey, acct.ID, 0)
			pipe.Set(ctx, recKey, recData, 0)
			pipe.SAdd(ctx, linkedStudentsKey(), rec.ID)
			return nil
		})
		return err
	}, recKey, emailKey, handleKey)
}

// Leaderboard

func (s *Storage) ListLeaderboard(ctx context.Context, filter model.LeaderboardFilter) ([]model.LeaderboardEntry, int, error) {
	members, err := s.client.SMembers(ctx, linkedStudentsKey()).Result()
	if err != nil {
		return nil, 0, err
	}
	if len(members) == 0 {
		return []model.LeaderboardEntry{}, 0, nil
	}

	studentKeys := make([]string, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("linked student id %q: %w", m, err)
		}
		studentKeys = append(studentKeys, studentKey(id))
	}

	students, err := mgetJSON[model.StudentRecord](ctx, s.client, studentKeys)
	if err != nil {
		return nil, 0, err
	}

	accountKeys := make([]string, 0, len(students))
	linked := make([]*model.StudentRecord, 0, len(students))
	for _, rec := range students {
		if rec.LinkedAccountID != nil {
			accountKeys = append(accountKeys, accountKey(*rec.LinkedAccountID))
			linked = append(linked, rec)
		}
	}
	if len(accountKeys) == 0 {
		return []model.LeaderboardEntry{}, 0, nil
	}

	fetched, err := mgetJSON[model.Account](ctx, s.client, accountKeys)
	if err != nil {
		return nil, 0, err
	}
	accounts := make(map[int64]*model.Account, len(fetched))
	for _, acct := range fetched {
		accounts[acct.ID] = acct
	}

	entries := make([]model.LeaderboardEntry, 0, len(linked))
	for _, rec := range linked {
		acct, ok := accounts[*rec.LinkedAccountID]
		if !ok {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			StudentRecordID:  rec.ID,
			AccountID:        acct.ID,
			StudentID:        rec.StudentID,
			FirstName:        rec.FirstName,
			LastName:         rec.LastName,
			Level:            acct.Level,
			ExperiencePoints: acct.ExperiencePoints,
		})
	}

	page, total := model.ApplyLeaderboardFilter(entries, filter)
	return page, total, nil
}

// watch runs fn in an optimistic transaction over keys, retrying when a
// watched key changed before EXEC
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for range s.cfg.MaxTxRetries {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("redis: transaction retries exhausted: %w", redis.TxFailedErr)
}

func (s *Storage) assignAccountID(ctx context.Context, acct *model.Account) error {
	id, err := s.client.Incr(ctx, accountSeqKey()).Result()
	if err != nil {
		return err
	}
	acct.ID = id
	acct.Handle = model.NormalizeHandle(acct.Handle)
	return nil
}

// reader is the read subset shared by *redis.Client and *redis.Tx
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

func checkAccountUnique(ctx context.Context, c reader, emailKey, handleKey string) error {
	n, err := c.Exists(ctx, emailKey).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return model.ErrEmailTaken
	}
	n, err = c.Exists(ctx, handleKey).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		return model.ErrHandleTaken
	}
	return nil
}

func getStudent(ctx context.Context, c reader, id int64) (*model.StudentRecord, error) {
	data, err := c.Get(ctx, studentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrStudentNotFound
		}
		return nil, err
	}

	var rec model.StudentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func getAccount(ctx context.Context, c reader, id int64) (*model.Account, error) {
	data, err := c.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var acct model.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// mgetJSON fetches keys in one round trip and decodes every present value.
// Missing keys are skipped.
func mgetJSON[T any](ctx context.Context, c *redis.Client, keys []string) ([]*T, error) {
	values, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var target T
		if err := json.Unmarshal([]byte(str), &target); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, &target)
	}
	return out, nil
}
