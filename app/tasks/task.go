package tasks

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeImportNews TaskType = "import_news"
)

type Task struct {
	ID        string
	Type      TaskType
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType) Task {
	return Task{
		ID:   uuid.NewString(),
		Type: taskType,
	}
}
