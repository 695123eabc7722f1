package recurrence

import (
	"bytes"
	"context"
	"strings"

	"github.com/gtn1024/puratodo-sub001/pkg/errutil"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const icalProductID = "-//puratodo//recurrence//EN"

// occurrenceUID derives a stable iCalendar UID from a task id.
func occurrenceUID(taskID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("puratodo:task:"+taskID)).String()
}

// ExportSeries renders the task's series as a VCALENDAR of VTODOs. The root
// carries the RRULE; later occurrences point back to it with RELATED-TO.
func (s *Service) ExportSeries(ctx context.Context, ownerID, taskID string, listID *string) ([]byte, error) {
	series, err := s.Series(ctx, ownerID, taskID, listID)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, icalProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	stamp := s.clock.Now().UTC()
	for _, member := range series {
		todo := ical.NewComponent(ical.CompToDo)
		todo.Props.SetText(ical.PropUID, occurrenceUID(member.ID))
		todo.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		todo.Props.SetText(ical.PropSummary, member.Name)
		if c := deref(member.Comment); c != "" {
			todo.Props.SetText(ical.PropDescription, c)
		}

		status := "NEEDS-ACTION"
		if member.Completed {
			status = "COMPLETED"
		}
		todo.Props.SetText(ical.PropStatus, status)

		setDate(todo, ical.PropDateTimeStart, deref(member.PlanDate))
		setDate(todo, ical.PropDue, deref(member.DueDate))

		rootID := SeriesRootID(member)
		if rootID == member.ID {
			if rule := RRule(s.resolve(member)); rule != "" {
				prop := ical.NewProp(ical.PropRecurrenceRule)
				prop.Value = rule
				todo.Props.Set(prop)
			}
		} else {
			todo.Props.SetText(ical.PropRelatedTo, occurrenceUID(rootID))
		}

		cal.Children = append(cal.Children, todo)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, errutil.Internal("failed to encode calendar", err)
	}
	return buf.Bytes(), nil
}

// setDate writes a VALUE=DATE property when date is a valid calendar date.
func setDate(comp *ical.Component, name, date string) {
	if !IsValidDate(date) {
		return
	}
	prop := ical.NewProp(name)
	prop.Value = strings.ReplaceAll(date, "-", "")
	prop.Params.Set("VALUE", "DATE")
	comp.Props.Set(prop)
}
