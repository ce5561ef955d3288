package adminauth

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingKeyPrefix      = "pmc"
	pendingRecordVersion1 = 1
)

// Challenge kinds. A setup challenge carries the generated secret so a
// failed confirmation attempt never regenerates it; a verify challenge
// carries only the principal reference.
const (
	pendingKindVerify uint8 = 1
	pendingKindSetup  uint8 = 2
)

var (
	errPendingNotFound = errors.New("pending challenge not found")
	errPendingExpired  = errors.New("pending challenge expired")
	errPendingBackend  = errors.New("pending challenge backend unavailable")
)

type pendingChallenge struct {
	Kind        uint8
	PrincipalID string
	Secret      []byte
	ExpiresAt   int64
	Attempts    uint16
}

type pendingChallengeStore struct {
	redis *redis.Client
}

func newPendingChallengeStore(redisClient *redis.Client) *pendingChallengeStore {
	return &pendingChallengeStore{redis: redisClient}
}

func (s *pendingChallengeStore) key(pendingID string) string {
	return pendingKeyPrefix + ":" + pendingID
}

func (s *pendingChallengeStore) Save(
	ctx context.Context,
	pendingID string,
	record *pendingChallenge,
	ttl time.Duration,
) error {
	encoded, err := encodePendingChallenge(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(pendingID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errPendingBackend, err)
	}
	return nil
}

func (s *pendingChallengeStore) Get(ctx context.Context, pendingID string) (*pendingChallenge, error) {
	data, err := s.redis.Get(ctx, s.key(pendingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errPendingNotFound
		}
		return nil, fmt.Errorf("%w: %v", errPendingBackend, err)
	}

	record, err := decodePendingChallenge(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > record.ExpiresAt {
		_, _ = s.redis.Del(ctx, s.key(pendingID)).Result()
		return nil, errPendingExpired
	}
	return record, nil
}

// Delete removes the challenge and reports whether it still existed. A
// false return means another confirmation already consumed it; callers
// treat that as a replay.
func (s *pendingChallengeStore) Delete(ctx context.Context, pendingID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(pendingID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errPendingBackend, err)
	}
	return n > 0, nil
}

// RecordFailure increments the attempt counter under WATCH so concurrent
// failures cannot lose updates. It returns true when the cap was reached,
// in which case the challenge has been deleted.
func (s *pendingChallengeStore) RecordFailure(
	ctx context.Context,
	pendingID string,
	maxAttempts int,
) (bool, error) {
	const maxRetries = 4
	key := s.key(pendingID)

	for i := 0; i < maxRetries; i++ {
		var exceeded bool
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodePendingChallenge(data)
			if err != nil {
				return err
			}
			if time.Now().Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errPendingExpired
			}

			record.Attempts++
			if int(record.Attempts) >= maxAttempts {
				exceeded = true
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return nil
			}

			ttl := time.Until(time.Unix(record.ExpiresAt, 0))
			if ttl <= 0 {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errPendingExpired
			}

			updated, err := encodePendingChallenge(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, errPendingNotFound
			}
			if errors.Is(err, errPendingExpired) {
				return false, err
			}
			return false, fmt.Errorf("%w: %v", errPendingBackend, err)
		}
		return exceeded, nil
	}

	return false, errPendingNotFound
}

func encodePendingChallenge(record *pendingChallenge) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(pendingRecordVersion1)
	buf.WriteByte(record.Kind)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	if len(record.PrincipalID) > 65535 || len(record.Secret) > 65535 {
		return nil, errors.New("pending challenge field length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.PrincipalID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.PrincipalID)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Secret))); err != nil {
		return nil, err
	}
	buf.Write(record.Secret)

	return buf.Bytes(), nil
}

func decodePendingChallenge(data []byte) (*pendingChallenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pendingRecordVersion1 {
		return nil, errors.New("invalid pending challenge version")
	}

	record := &pendingChallenge{}
	kind, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind != pendingKindVerify && kind != pendingKindSetup {
		return nil, errors.New("invalid pending challenge kind")
	}
	record.Kind = kind

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var principalLen uint16
	if err := binary.Read(reader, binary.BigEndian, &principalLen); err != nil {
		return nil, err
	}
	principal := make([]byte, principalLen)
	if _, err := io.ReadFull(reader, principal); err != nil {
		return nil, err
	}
	record.PrincipalID = string(principal)

	var secretLen uint16
	if err := binary.Read(reader, binary.BigEndian, &secretLen); err != nil {
		return nil, err
	}
	if secretLen > 0 {
		secret := make([]byte, secretLen)
		if _, err := io.ReadFull(reader, secret); err != nil {
			return nil, err
		}
		record.Secret = secret
	}

	return record, nil
}
