package components

import (
	"circulation-core/internal/handler"
	"circulation-core/internal/handler/api"
	"circulation-core/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewCirculationHandler,
		api.NewAuditHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
