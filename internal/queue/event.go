// Package queue defines the task activity events exchanged over RabbitMQ,
// the publisher used by the services and the activity-log consumer.
package queue

import "time"

// TaskQueueName is the durable queue carrying TaskEvent messages.
const TaskQueueName = "task.events"

// EventType names what happened to a task or category.
type EventType string

const (
	TaskCreated     EventType = "task.created"
	TaskUpdated     EventType = "task.updated"
	TaskCompleted   EventType = "task.completed"
	TaskDeleted     EventType = "task.deleted"
	TasksReordered  EventType = "tasks.reordered"
	CategoryCreated EventType = "category.created"
	CategoryUpdated EventType = "category.updated"
	CategoryDeleted EventType = "category.deleted"
	UserRegistered  EventType = "user.registered"
)

// TaskEvent is published after a successful mutation. It carries enough
// for downstream consumers to log or notify without querying the primary
// database.
type TaskEvent struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	TaskID     string    `json:"task_id,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Count      int       `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
