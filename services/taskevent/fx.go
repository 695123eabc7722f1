package taskevent

import (
	"github.com/gtn1024/puratodo-sub001/services/recurrence"

	"go.uber.org/fx"
)

// PublisherModule feeds generated occurrences to the task-events queue.
var PublisherModule = fx.Module("taskevent.publisher",
	fx.Provide(
		NewPublisher,
		func(p *Publisher) recurrence.Publisher { return p },
	),
)

var WorkerModule = fx.Module("taskevent.worker",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
