package task

import (
	"time"

	"gorm.io/datatypes"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom"
)

type Task struct {
	ID              string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	UserID          string     `gorm:"column:user_id;index:idx_tasks_owner_list;type:varchar(64);not null" json:"user_id"`
	ListID          string     `gorm:"column:list_id;index:idx_tasks_owner_list;type:varchar(64);not null" json:"list_id"`
	ParentID        *string    `gorm:"column:parent_id;index;type:varchar(32)" json:"parent_id"`
	Name            string     `gorm:"column:name;type:varchar(500);not null" json:"name"`
	Completed       bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	Starred         bool       `gorm:"column:starred;not null;default:false" json:"starred"`
	PlanDate        *string    `gorm:"column:plan_date;type:varchar(10)" json:"plan_date"`
	DueDate         *string    `gorm:"column:due_date;type:varchar(10)" json:"due_date"`
	Comment         *string    `gorm:"column:comment;type:text" json:"comment"`
	DurationMinutes *int       `gorm:"column:duration_minutes" json:"duration_minutes"`
	RemindAt        *time.Time `gorm:"column:remind_at" json:"remind_at"`
	SortOrder       int64      `gorm:"column:sort_order;not null;default:0" json:"sort_order"`

	RecurrenceFrequency    *string                  `gorm:"column:recurrence_frequency;type:varchar(16)" json:"recurrence_frequency"`
	RecurrenceInterval     *int                     `gorm:"column:recurrence_interval" json:"recurrence_interval"`
	RecurrenceWeekdays     datatypes.JSONSlice[int] `gorm:"column:recurrence_weekdays" json:"recurrence_weekdays"`
	RecurrenceEndDate      *string                  `gorm:"column:recurrence_end_date;type:varchar(10)" json:"recurrence_end_date"`
	RecurrenceEndCount     *int                     `gorm:"column:recurrence_end_count" json:"recurrence_end_count"`
	RecurrenceRule         *string                  `gorm:"column:recurrence_rule;type:varchar(255)" json:"recurrence_rule"`
	RecurrenceTimezone     *string                  `gorm:"column:recurrence_timezone;type:varchar(64)" json:"recurrence_timezone"`
	RecurrenceSourceTaskID *string                  `gorm:"column:recurrence_source_task_id;index;type:varchar(32)" json:"recurrence_source_task_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// IsRecurring reports whether a frequency other than none is stored.
func (t *Task) IsRecurring() bool {
	return t != nil && t.RecurrenceFrequency != nil && *t.RecurrenceFrequency != ""
}
