package bootstrap

import (
	"circulation-core/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.CirculationConfig { return cfg.Circulation },
		func(cfg config.Config) config.GatewayConfig { return cfg.Gateway },
	),
)
