package components

import (
	"circulation-core/internal/infra/gateway"
	"circulation-core/internal/usecase/commands"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		fx.Annotate(
			gateway.NewCatalogClient,
			fx.As(new(commands.CatalogGateway)),
		),
		fx.Annotate(
			gateway.NewMembershipClient,
			fx.As(new(commands.MembershipGateway)),
		),
	),
)
