package task

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gtn1024/puratodo-sub001/pkg/errutil"

	"gorm.io/datatypes"
)

const (
	ColUserID                 = "user_id"
	ColListID                 = "list_id"
	ColParentID               = "parent_id"
	ColName                   = "name"
	ColCompleted              = "completed"
	ColStarred                = "starred"
	ColPlanDate               = "plan_date"
	ColDueDate                = "due_date"
	ColComment                = "comment"
	ColDurationMinutes        = "duration_minutes"
	ColRemindAt               = "remind_at"
	ColSortOrder              = "sort_order"
	ColRecurrenceFrequency    = "recurrence_frequency"
	ColRecurrenceInterval     = "recurrence_interval"
	ColRecurrenceWeekdays     = "recurrence_weekdays"
	ColRecurrenceEndDate      = "recurrence_end_date"
	ColRecurrenceEndCount     = "recurrence_end_count"
	ColRecurrenceRule         = "recurrence_rule"
	ColRecurrenceTimezone     = "recurrence_timezone"
	ColRecurrenceSourceTaskID = "recurrence_source_task_id"
)

// RecurrenceFields are the columns that may cascade to later occurrences of
// a series. The series link itself is not one of them.
var RecurrenceFields = []string{
	ColRecurrenceFrequency,
	ColRecurrenceInterval,
	ColRecurrenceWeekdays,
	ColRecurrenceEndDate,
	ColRecurrenceEndCount,
	ColRecurrenceRule,
	ColRecurrenceTimezone,
}

// Patch is a partial update keyed by column name. Values are already
// normalized for the database: nil means NULL.
type Patch map[string]any

func (p Patch) Has(column string) bool {
	_, ok := p[column]
	return ok
}

// Completed returns the requested completion state, if the patch sets one.
func (p Patch) Completed() (bool, bool) {
	v, ok := p[ColCompleted]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Recurrence returns the subset of p touching RecurrenceFields.
func (p Patch) Recurrence() Patch {
	out := Patch{}
	for _, col := range RecurrenceFields {
		if v, ok := p[col]; ok {
			out[col] = v
		}
	}
	return out
}

// ListScope returns the list the task lives in once p is applied, keeping
// listID when p does not move it. A nil listID stays unscoped.
func (p Patch) ListScope(listID *string) *string {
	if listID == nil {
		return nil
	}
	if moved, ok := p[ColListID].(string); ok && moved != "" {
		return &moved
	}
	return listID
}

// ApplyTo copies the patch onto an in-memory task.
func (p Patch) ApplyTo(t *Task) {
	for col, v := range p {
		switch col {
		case ColListID:
			t.ListID, _ = v.(string)
		case ColParentID:
			t.ParentID = stringPtr(v)
		case ColName:
			t.Name, _ = v.(string)
		case ColCompleted:
			t.Completed, _ = v.(bool)
		case ColStarred:
			t.Starred, _ = v.(bool)
		case ColPlanDate:
			t.PlanDate = stringPtr(v)
		case ColDueDate:
			t.DueDate = stringPtr(v)
		case ColComment:
			t.Comment = stringPtr(v)
		case ColDurationMinutes:
			t.DurationMinutes = intPtr(v)
		case ColRemindAt:
			if ts, ok := v.(time.Time); ok {
				t.RemindAt = &ts
			} else {
				t.RemindAt = nil
			}
		case ColSortOrder:
			if n, ok := v.(int64); ok {
				t.SortOrder = n
			}
		case ColRecurrenceFrequency:
			t.RecurrenceFrequency = stringPtr(v)
		case ColRecurrenceInterval:
			t.RecurrenceInterval = intPtr(v)
		case ColRecurrenceWeekdays:
			t.RecurrenceWeekdays, _ = v.(datatypes.JSONSlice[int])
		case ColRecurrenceEndDate:
			t.RecurrenceEndDate = stringPtr(v)
		case ColRecurrenceEndCount:
			t.RecurrenceEndCount = intPtr(v)
		case ColRecurrenceRule:
			t.RecurrenceRule = stringPtr(v)
		case ColRecurrenceTimezone:
			t.RecurrenceTimezone = stringPtr(v)
		case ColRecurrenceSourceTaskID:
			t.RecurrenceSourceTaskID = stringPtr(v)
		}
	}
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func intPtr(v any) *int {
	n, ok := v.(int)
	if !ok {
		return nil
	}
	return &n
}

type fieldParser func(field string, v any) (any, string)

type fieldRule struct {
	column string
	parse  fieldParser
}

var patchRules = []fieldRule{
	{ColName, parseName},
	{ColCompleted, parseBool},
	{ColStarred, parseBool},
	{ColDueDate, parseOptionalDate},
	{ColPlanDate, parseOptionalDate},
	{ColComment, parseOptionalText},
	{ColDurationMinutes, parseDuration},
	{ColRemindAt, parseOptionalTimestamp},
	{ColListID, parseRequiredID},
	{ColRecurrenceFrequency, parseFrequency},
	{ColRecurrenceInterval, parseOptionalPositiveInt},
	{ColRecurrenceWeekdays, parseWeekdays},
	{ColRecurrenceEndDate, parseOptionalDate},
	{ColRecurrenceEndCount, parseOptionalPositiveInt},
	{ColRecurrenceRule, parseOptionalText},
	{ColRecurrenceTimezone, parseOptionalText},
	{ColRecurrenceSourceTaskID, parseOptionalText},
}

var createRules = append([]fieldRule{{ColParentID, parseOptionalText}}, patchRules...)

// ParsePatch validates a decoded JSON body for a task update. Keys that are
// not task fields are ignored; an empty result is left for the caller to
// reject.
func ParsePatch(input map[string]any) (Patch, error) {
	return parseFields(input, patchRules)
}

// ParseCreate validates a decoded JSON body for a new task. The owner, id
// and sort order are assigned by the service.
func ParseCreate(input map[string]any) (*Task, error) {
	patch, err := parseFields(input, createRules)
	if err != nil {
		return nil, err
	}

	var details []errutil.Detail
	if !patch.Has(ColListID) {
		details = append(details, errutil.Detail{Field: ColListID, Message: "list_id is required"})
	}
	if !patch.Has(ColName) {
		details = append(details, errutil.Detail{Field: ColName, Message: "Name is required"})
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed(details[0].Message, nil, errutil.WithDetails(details...))
	}

	t := &Task{}
	patch.ApplyTo(t)
	return t, nil
}

func parseFields(input map[string]any, rules []fieldRule) (Patch, error) {
	patch := Patch{}
	var details []errutil.Detail

	for _, rule := range rules {
		raw, ok := input[rule.column]
		if !ok {
			continue
		}

		v, msg := rule.parse(rule.column, raw)
		if msg != "" {
			details = append(details, errutil.Detail{Field: rule.column, Message: msg})
			continue
		}
		patch[rule.column] = v
	}

	if len(details) > 0 {
		return nil, errutil.ValidationFailed(details[0].Message, nil, errutil.WithDetails(details...))
	}
	return patch, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func parseName(field string, v any) (any, string) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, "Name must be a non-empty string"
	}
	return strings.TrimSpace(s), ""
}

func parseRequiredID(field string, v any) (any, string) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, fmt.Sprintf("%s must be a non-empty string", field)
	}
	return strings.TrimSpace(s), ""
}

func parseBool(field string, v any) (any, string) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Sprintf("%s must be a boolean", field)
	}
	return b, ""
}

func parseOptionalText(field string, v any) (any, string) {
	if isBlank(v) {
		return nil, ""
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Sprintf("%s must be a string", field)
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil, ""
	}
	return s, ""
}

func parseOptionalDate(field string, v any) (any, string) {
	if isBlank(v) {
		return nil, ""
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Sprintf("%s must be a date string", field)
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return nil, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	}
	return s, ""
}

func parseOptionalTimestamp(field string, v any) (any, string) {
	if isBlank(v) {
		return nil, ""
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Sprintf("%s must be a timestamp string", field)
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Sprintf("%s must be an RFC 3339 timestamp", field)
	}
	return ts.UTC(), ""
}

func parseFrequency(field string, v any) (any, string) {
	if isBlank(v) {
		return nil, ""
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Sprintf("%s must be a string", field)
	}

	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "none":
		return nil, ""
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return f, ""
	default:
		return nil, fmt.Sprintf("%s must be one of: daily, weekly, monthly, custom", field)
	}
}

func parseOptionalPositiveInt(field string, v any) (any, string) {
	if isBlank(v) {
		return nil, ""
	}
	n, ok := toInt(v)
	if !ok || n <= 0 {
		return nil, fmt.Sprintf("%s must be a positive integer", field)
	}
	return n, ""
}

// duration_minutes treats 0 as unset.
func parseDuration(field string, v any) (any, string) {
	if isBlank(v) {
		return nil, ""
	}
	n, ok := toInt(v)
	if !ok || n < 0 {
		return nil, fmt.Sprintf("%s must be a non-negative integer", field)
	}
	if n == 0 {
		return nil, ""
	}
	return n, ""
}

func parseWeekdays(field string, v any) (any, string) {
	if isBlank(v) {
		return datatypes.JSONSlice[int](nil), ""
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Sprintf("%s must be an array", field)
	}

	days := make(datatypes.JSONSlice[int], 0, len(items))
	for _, item := range items {
		n, ok := toInt(item)
		if !ok || n < 0 || n > 6 {
			return nil, fmt.Sprintf("%s entries must be integers between 0 and 6", field)
		}
		days = append(days, n)
	}
	return days, ""
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}
