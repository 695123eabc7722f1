package taskname

const (
	// Task events
	TaskOccurrenceCreated = "task:occurrence:created"
)

const (
	QueueTaskEvents = "task-events"
	QueueDefault    = "default"
)
