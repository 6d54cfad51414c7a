// Package postgres is an optional message.Store backed by PostgreSQL, for
// embedders that want inbound multi-part segments to survive a process
// restart instead of living only in the built-in in-memory cache.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegisgw/smsgateway/message"
)

// Store persists segments in a single table, keyed by composite id plus a
// per-row uuid so ReceiveSegment can upsert the same (id, segment) slot
// without a separate existence check.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. Callers own the pool's lifecycle.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the backing table if it does not already exist.
// Call once at startup; safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS inbound_segments (
			row_id          uuid PRIMARY KEY,
			composite_id    text NOT NULL,
			location        integer NOT NULL,
			origin          text NOT NULL,
			content         text NOT NULL,
			udh             integer NOT NULL,
			segment_num     integer NOT NULL,
			total_segments  integer NOT NULL,
			ts              timestamptz NOT NULL,
			smsc_ts         timestamptz,
			UNIQUE (composite_id, segment_num)
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres segment store: ensure schema: %w", err)
	}
	return nil
}

// ReceiveSegment upserts seg into the backing table. Durable persistence is
// considered immediate once the write commits, so shouldDelete is always
// true on success.
func (s *Store) ReceiveSegment(seg message.Segment) (bool, error) {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO inbound_segments
			(row_id, composite_id, location, origin, content, udh, segment_num, total_segments, ts, smsc_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (composite_id, segment_num) DO UPDATE SET
			location = EXCLUDED.location,
			origin = EXCLUDED.origin,
			content = EXCLUDED.content,
			ts = EXCLUDED.ts,
			smsc_ts = EXCLUDED.smsc_ts
		WHERE EXCLUDED.ts > inbound_segments.ts
	`,
		uuid.NewString(), seg.ID, seg.Location, seg.From, seg.Content,
		seg.UDH, seg.SegmentNum, seg.TotalSegments, seg.Timestamp, smscOrNil(seg),
	)
	if err != nil {
		return false, fmt.Errorf("postgres segment store: receive_segment: %w", err)
	}
	return true, nil
}

// ReturnSegments loads every stored part sharing id.
func (s *Store) ReturnSegments(id string) ([]message.Segment, error) {
	ctx := context.Background()
	rows, err := s.pool.Query(ctx, `
		SELECT location, origin, content, udh, segment_num, total_segments, ts, smsc_ts
		FROM inbound_segments
		WHERE composite_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres segment store: return_segments: %w", err)
	}
	defer rows.Close()

	var segs []message.Segment
	for rows.Next() {
		var seg message.Segment
		var smsc *time.Time
		if err := rows.Scan(&seg.Location, &seg.From, &seg.Content, &seg.UDH,
			&seg.SegmentNum, &seg.TotalSegments, &seg.Timestamp, &smsc); err != nil {
			return nil, fmt.Errorf("postgres segment store: return_segments: scan: %w", err)
		}
		if smsc != nil {
			seg.SMSCTimestamp = *smsc
			seg.HasSMSC = true
		}
		seg.ID = id
		segs = append(segs, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres segment store: return_segments: %w", err)
	}
	return segs, nil
}

// ReleaseSegments discards every stored part for id, once its composite has
// been delivered successfully.
func (s *Store) ReleaseSegments(id string) error {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, `DELETE FROM inbound_segments WHERE composite_id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres segment store: release_segments: %w", err)
	}
	return nil
}

func smscOrNil(seg message.Segment) any {
	if !seg.HasSMSC {
		return nil
	}
	return seg.SMSCTimestamp
}
