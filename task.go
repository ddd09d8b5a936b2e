package gopool

import "github.com/oklog/ulid/v2"

// Rfc3339Milli is like time.RFC3339Nano, but with millisecond precision
const Rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"

type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// Task is a persisted unit of work. It moves through exactly one of two
// paths: pending -> running -> done, or pending -> running -> failed.
// A failed task stays failed; there is no retry lane.
type Task struct {
	Id        string `db:"id"`
	Type      string `db:"type"`
	Payload   []byte `db:"payload"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// NewTask builds a pending task with a fresh ulid. Ulids sort by
// creation time, so ordering claims by id gives submission order.
func NewTask(taskType string, payload []byte) *Task {
	return &Task{
		Id:      ulid.Make().String(),
		Type:    taskType,
		Payload: payload,
		Status:  string(TaskPending),
	}
}
