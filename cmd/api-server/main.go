// Command api-server serves the storefront checkout API.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/storefront-checkout/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		lg.Info("Loaded config",
			zap.String("domain", cfg.Domain),
			zap.Duration("gateway_timeout", cfg.Gateway.Timeout),
		)
		return appkg.Run(ctx, lg, m, cfg)
	})
}
