package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
)

// pendingReclaimAfter is how long a pending key may sit untouched before a
// retry is allowed to take it over. Pending entries older than this belong
// to requests that died mid-flight.
const pendingReclaimAfter = time.Minute

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// IdempotencyRecord is one row of the key table. RequestHash fingerprints
// the original body so a key cannot be reused for a different payload.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  int               `db:"response_status"`
	ContentType string            `db:"response_content_type"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
	ExpiresAt   time.Time         `db:"expires_at"`
}

// IdempotencyReplay is the cached HTTP response served on a retried key.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore persists idempotency keys in PostgreSQL. It runs on the
// caller's transaction when one is on the context, so completing a key can
// commit atomically with the operation it guards.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates a store whose keys expire after ttl.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
	}
}

// AcquireKey claims the key for the current request.
//
// A nil replay with a nil error means the key is ours and the handler should
// run. A non-nil replay means a finished request already holds the key and
// its cached response must be served instead. A key held by an in-flight
// request yields an idempotency conflict, and a key reused with a different
// user, route or body yields a mismatch.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := time.Now().UTC()

	// One round trip: insert the pending row, or surface the existing one.
	// The expiry only ever moves forward; updated_at stays as the holder
	// left it so staleness below is measured against real activity.
	sql := `
		INSERT INTO sys_idempotency
			(idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, $7)
		RETURNING idempotency_key, user_id, operation, status, request_hash,
			response, response_status, response_content_type,
			created_at, updated_at, expires_at
	`

	rec := &IdempotencyRecord{}
	querier := s.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, rec, sql,
		key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)); err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}

	// Our own insert comes back with created_at = $6. The tolerance absorbs
	// the microsecond rounding of the timestamp column.
	if now.Sub(rec.CreatedAt) < time.Second {
		return nil, nil
	}

	if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("stored_user_id", rec.UserID).
			WithDetail("request_user_id", userID).
			WithDetail("stored_operation", rec.Operation).
			WithDetail("request_operation", operation).
			WithDetail("stored_request_hash", rec.RequestHash).
			WithDetail("request_request_hash", requestHash)
	}

	switch rec.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return rec.replay(), nil

	case IdempotencyStatusPending:
		if time.Since(rec.UpdatedAt) > pendingReclaimAfter {
			// The original holder never finished; the retry takes over.
			return nil, s.reclaimKey(ctx, key, now)
		}
		return nil, apperror.NewIdempotencyConflict(key)
	}

	return nil, nil
}

// reclaimKey refreshes updated_at so the takeover reads as activity and
// parallel retries go back to conflicting.
func (s *IdempotencyStore) reclaimKey(ctx context.Context, key string, now time.Time) error {
	sql := `
		UPDATE sys_idempotency
		SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3
	`
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, now, key, IdempotencyStatusPending); err != nil {
		return fmt.Errorf("reclaim idempotency key: %w", err)
	}
	return nil
}

// replay builds the cached response, defaulting fields missing on rows
// written before status and content type were recorded.
func (r *IdempotencyRecord) replay() *IdempotencyReplay {
	out := &IdempotencyReplay{
		StatusCode:  r.StatusCode,
		ContentType: r.ContentType,
		Body:        r.Response,
	}
	if out.StatusCode == 0 {
		out.StatusCode = http.StatusOK
	}
	if out.ContentType == "" {
		out.ContentType = "application/json"
	}
	return out
}

// CompleteKey stores the successful response so retries replay it.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := marshalReplayBody(response)
	if err != nil {
		return err
	}
	return s.finishKey(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey stores the error response under the key. A body that cannot be
// marshalled is replaced with a minimal error object rather than leaving the
// key pending forever.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := marshalReplayBody(response)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return s.finishKey(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

func (s *IdempotencyStore) finishKey(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	sql := `
		UPDATE sys_idempotency
		SET status = $1,
			response = $2,
			response_status = $3,
			response_content_type = $4,
			updated_at = $5
		WHERE idempotency_key = $6
	`
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		status, body, statusCode, contentType, time.Now().UTC(), key); err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

func marshalReplayBody(response any) ([]byte, error) {
	if response == nil {
		return nil, nil
	}
	b, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency response: %w", err)
	}
	return b, nil
}

// CleanupExpired deletes records past their expiry and reports how many
// were removed. Called from the server's maintenance loop.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
