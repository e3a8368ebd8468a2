// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/classpulse/models"
)

// SQL persists polls in a relational database. Queries use $N placeholders
// in ascending order, which both lib/pq and modernc.org/sqlite accept.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// unavailable wraps driver-level failures so callers can match with
// errors.Is(err, ErrUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// CreatePoll inserts a poll and its options in one transaction.
func (s *SQL) CreatePoll(ctx context.Context, p models.Poll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin create poll", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, question, presenter, timer_sec, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Question, p.Presenter, p.TimerSec, p.Status, p.CreatedAt)
	if err != nil {
		return unavailable("insert poll", err)
	}

	for _, opt := range p.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO option (poll_id, id, text, votes)
			VALUES ($1, $2, $3, $4)
		`, p.ID, opt.ID, opt.Text, opt.Votes)
		if err != nil {
			return unavailable("insert option", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit create poll", err)
	}
	return nil
}

// GetPoll loads a poll with its options ordered by option id.
func (s *SQL) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	p, err := scanPoll(s.db.QueryRowContext(ctx, `
		SELECT id, question, presenter, timer_sec, status, created_at, closed_at
		FROM poll WHERE id = $1
	`, id))
	if err != nil {
		return models.Poll{}, err
	}

	p.Options, err = s.pollOptions(ctx, s.db, p.ID)
	if err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// ClosePoll flips an open poll to closed. The conditional UPDATE is the
// idempotency gate: a second close (or a timer racing a manual close)
// affects zero rows and reports closed=false without error.
func (s *SQL) ClosePoll(ctx context.Context, id string, closedAt time.Time) (models.Poll, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll SET status = $1, closed_at = $2
		WHERE id = $3 AND status = $4
	`, models.StatusClosed, closedAt, id, models.StatusOpen)
	if err != nil {
		return models.Poll{}, false, unavailable("close poll", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Poll{}, false, unavailable("close poll rows", err)
	}
	if n == 0 {
		return models.Poll{}, false, nil
	}

	p, err := s.GetPoll(ctx, id)
	if err != nil {
		return models.Poll{}, false, err
	}
	return p, true, nil
}

// RecordVote applies "check not voted + add voter + increment tally" as a
// single atomic unit. The vote table's primary key is the insert-if-absent
// gate: of two concurrent submissions with the same voter, exactly one
// insert sticks and only that one increments the tally.
func (s *SQL) RecordVote(ctx context.Context, pollID string, optionID int, voterID string) (models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, unavailable("begin vote", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM poll WHERE id = $1`, pollID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, unavailable("query poll status", err)
	}
	if status != models.StatusOpen {
		return models.Poll{}, ErrPollClosed
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM option WHERE poll_id = $1 AND id = $2)
	`, pollID, optionID).Scan(&exists)
	if err != nil {
		return models.Poll{}, unavailable("query option", err)
	}
	if !exists {
		return models.Poll{}, ErrInvalidOption
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO vote (poll_id, voter_id, option_id, cast_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, pollID, voterID, optionID, time.Now().UTC())
	if err != nil {
		return models.Poll{}, unavailable("insert vote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Poll{}, unavailable("insert vote rows", err)
	}
	if n == 0 {
		return models.Poll{}, ErrDuplicateVote
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE option SET votes = votes + 1 WHERE poll_id = $1 AND id = $2
	`, pollID, optionID)
	if err != nil {
		return models.Poll{}, unavailable("increment tally", err)
	}

	p, err := s.pollInTx(ctx, tx, pollID)
	if err != nil {
		return models.Poll{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, unavailable("commit vote", err)
	}
	return p, nil
}

// OpenPolls returns all polls still marked open, oldest first.
func (s *SQL) OpenPolls(ctx context.Context) ([]models.Poll, error) {
	return s.listPolls(ctx, `
		SELECT id, question, presenter, timer_sec, status, created_at, closed_at
		FROM poll WHERE status = $1 ORDER BY created_at ASC
	`, models.StatusOpen)
}

// EnsurePresenter upserts a presenter by username.
func (s *SQL) EnsurePresenter(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presenter (username, created_at)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, username, time.Now().UTC())
	if err != nil {
		return unavailable("upsert presenter", err)
	}
	return nil
}

// PollsByPresenter returns a presenter's polls, newest first.
func (s *SQL) PollsByPresenter(ctx context.Context, username string) ([]models.Poll, error) {
	return s.listPolls(ctx, `
		SELECT id, question, presenter, timer_sec, status, created_at, closed_at
		FROM poll WHERE presenter = $1 ORDER BY created_at DESC
	`, username)
}

func (s *SQL) listPolls(ctx context.Context, query string, arg any) ([]models.Poll, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, unavailable("query polls", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate polls", err)
	}

	for i := range polls {
		polls[i].Options, err = s.pollOptions(ctx, s.db, polls[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func (s *SQL) pollInTx(ctx context.Context, tx *sql.Tx, id string) (models.Poll, error) {
	p, err := scanPoll(tx.QueryRowContext(ctx, `
		SELECT id, question, presenter, timer_sec, status, created_at, closed_at
		FROM poll WHERE id = $1
	`, id))
	if err != nil {
		return models.Poll{}, err
	}
	p.Options, err = s.pollOptions(ctx, tx, id)
	if err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQL) pollOptions(ctx context.Context, q querier, pollID string) ([]models.Option, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, text, votes FROM option WHERE poll_id = $1 ORDER BY id
	`, pollID)
	if err != nil {
		return nil, unavailable("query options", err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.Text, &opt.Votes); err != nil {
			return nil, unavailable("scan option", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate options", err)
	}
	return options, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var closedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Question, &p.Presenter, &p.TimerSec, &p.Status, &p.CreatedAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, unavailable("scan poll", err)
	}
	if closedAt.Valid {
		t := closedAt.Time
		p.ClosedAt = &t
	}
	return p, nil
}
