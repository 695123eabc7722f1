package recurrence

import (
	"github.com/gtn1024/puratodo-sub001/services/task"

	"go.uber.org/fx"
)

var Module = fx.Module("recurrence.service",
	fx.Provide(
		func(s *task.Store) Store { return s },
		NewService,
	),
)
