package gopool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var createTasks = `create table if not exists tasks (
		id TEXT not null primary key,
		type TEXT not null,
		payload BLOB,
		status TEXT not null default 'pending',
		created_at TEXT not null,
		updated_at TEXT not null
	) strict;`

// ErrNoPendingTasks is returned by Claim when the journal holds no
// pending tasks.
var ErrNoPendingTasks = errors.New("no pending tasks")

type count struct {
	Count int `db:"count"`
}

// Store is the task journal: a SQLite table of tasks moving through
// pending -> running -> done|failed. The journal is the durable intake
// in front of the in-memory pool; a task is only handed to the pool
// after Claim has moved it to running.
type Store struct {
	db     *sqlx.DB
	clock  Clock
	logger *slog.Logger
}

func NewStore(dbPath string, clock Clock, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("%s?cache=shared&mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA journal_size_limit = 67108864;")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA mmap_size = 134217728;")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("PRAGMA cache_size = 2000;")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, clock: clock, logger: logger}

	ctx := context.Background()
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err = tx.ExecContext(ctx, createTasks)
		return err
	})

	return s, err
}

// Enqueue writes a pending task to the journal.
func (s *Store) Enqueue(ctx context.Context, task *Task) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		now := s.clock.Now().Format(Rfc3339Milli)
		writeQuery := `insert into tasks (id, type, payload, status, created_at, updated_at) values ($1, $2, $3, $4, $5, $6)`
		_, innerErr := tx.ExecContext(ctx, writeQuery, task.Id, task.Type, task.Payload, task.Status, now, now)
		return innerErr
	})
}

// Claim moves the oldest pending task to running and returns it. Ulid
// ids order by creation time, so claims come out in enqueue order.
func (s *Store) Claim(ctx context.Context) (task Task, err error) {
	getFirstItem := `select id from tasks where status = 'pending' order by id limit 1;`
	updateItemStatus := `update tasks set status = 'running', updated_at = $1 where id = $2 returning *;`

	defer func() {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNoPendingTasks
		}
	}()

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, getFirstItem)
		if row.Err() != nil {
			return row.Err()
		}

		var rowValue struct {
			Id string `db:"id"`
		}
		if rowScanErr := row.StructScan(&rowValue); rowScanErr != nil {
			return rowScanErr
		}

		row = tx.QueryRowxContext(ctx, updateItemStatus, s.clock.Now().Format(Rfc3339Milli), rowValue.Id)
		if row.Err() != nil {
			return row.Err()
		}

		return row.StructScan(&task)
	})

	return task, err
}

// Mark records a task's terminal status. A task can only move forward:
// marking a done or failed task again is an error.
func (s *Store) Mark(ctx context.Context, id string, status TaskStatus) error {
	getItemById := `select * from tasks where id = $1`
	updateItemStatus := `update tasks set status = $1, updated_at = $2 where id = $3;`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, getItemById, id)
		if row.Err() != nil {
			return row.Err()
		}

		var rowValue Task
		if rowScanErr := row.StructScan(&rowValue); rowScanErr != nil {
			return rowScanErr
		}

		if statusRank(TaskStatus(rowValue.Status)) >= statusRank(status) {
			return fmt.Errorf("task %s is already in the %s state", id, rowValue.Status)
		}

		_, err := tx.ExecContext(ctx, updateItemStatus, string(status), s.clock.Now().Format(Rfc3339Milli), id)
		return err
	})
}

// Get fetches a task by id.
func (s *Store) Get(ctx context.Context, id string) (task Task, err error) {
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `select * from tasks where id = $1`, id)
		if row.Err() != nil {
			return row.Err()
		}
		return row.StructScan(&task)
	})

	return task, err
}

// Pending counts tasks still waiting to be claimed.
func (s *Store) Pending(ctx context.Context) (n int, err error) {
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `select count(*) as count from tasks where status = 'pending'`)
		if row.Err() != nil {
			return row.Err()
		}

		var c count
		if rowScanErr := row.StructScan(&c); rowScanErr != nil {
			return rowScanErr
		}

		n = c.Count
		return nil
	})

	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func statusRank(status TaskStatus) int {
	switch status {
	case TaskPending:
		return 0
	case TaskRunning:
		return 1
	default:
		return 2
	}
}

func (s *Store) inTx(ctx context.Context, cb func(*sqlx.Tx) error) (err error) {
	tx, beginErr := s.db.BeginTxx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("cannot start tx: %w", beginErr)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = rollback(tx, nil)
			panic(rec)
		}
	}()

	if err = cb(tx); err != nil {
		return rollback(tx, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("cannot commit tx: %w", commitErr)
	}

	return nil
}

func rollback(tx *sqlx.Tx, err error) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return fmt.Errorf("cannot roll back tx after error (tx error: %v), original error: %w", rollbackErr, err)
	}
	return err
}
