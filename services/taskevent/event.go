package taskevent

import (
	"encoding/json"
	"time"

	"github.com/gtn1024/puratodo-sub001/pkg/taskname"
	"github.com/gtn1024/puratodo-sub001/services/task"

	"github.com/hibiken/asynq"
)

type OccurrenceCreatedPayload struct {
	TaskID       string     `json:"task_id"`
	UserID       string     `json:"user_id"`
	ListID       string     `json:"list_id"`
	SeriesRootID string     `json:"series_root_id"`
	Name         string     `json:"name"`
	PlanDate     string     `json:"plan_date,omitempty"`
	DueDate      string     `json:"due_date,omitempty"`
	RemindAt     *time.Time `json:"remind_at,omitempty"`
}

func NewOccurrenceCreatedPayload(t *task.Task) OccurrenceCreatedPayload {
	p := OccurrenceCreatedPayload{
		TaskID:   t.ID,
		UserID:   t.UserID,
		ListID:   t.ListID,
		Name:     t.Name,
		RemindAt: t.RemindAt,
	}
	if t.RecurrenceSourceTaskID != nil {
		p.SeriesRootID = *t.RecurrenceSourceTaskID
	}
	if t.PlanDate != nil {
		p.PlanDate = *t.PlanDate
	}
	if t.DueDate != nil {
		p.DueDate = *t.DueDate
	}
	return p
}

func NewOccurrenceCreatedTask(t *task.Task) (*asynq.Task, error) {
	payload, err := json.Marshal(NewOccurrenceCreatedPayload(t))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.TaskOccurrenceCreated, payload), nil
}
