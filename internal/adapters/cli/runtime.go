package cli

import (
	"context"
	"fmt"

	"billing-service/internal/ai"
	"billing-service/internal/app"
	"billing-service/internal/config"
	"billing-service/internal/core"
	"billing-service/internal/store"
	"billing-service/migrations"

	"go.uber.org/zap"
)

// runtime holds what the commands share: loaded configuration, the logger and
// the storage gateway once opened.
type runtime struct {
	cfg     *config.Config
	log     *zap.Logger
	account string
	gateway *store.Gateway
}

// openStore connects to Postgres and, when DATABASE_AUTO_MIGRATE is set,
// applies pending migrations.
func (rt *runtime) openStore(ctx context.Context) error {
	if rt.gateway != nil {
		return nil
	}
	if rt.cfg.DatabaseURL == "" {
		return core.NewConfigError("document storage", "DATABASE_URL")
	}

	gw, err := store.Open(ctx, store.Config{
		DatabaseURL: rt.cfg.DatabaseURL,
		MaxConns:    rt.cfg.DatabaseMaxConns,
		RedisURL:    rt.cfg.RedisURL,
	}, rt.log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	rt.gateway = gw

	if rt.cfg.DatabaseAutoMigrate {
		if err := gw.Ping(ctx); err != nil {
			rt.log.Warn("database unreachable, skipping automatic migrations", zap.Error(err))
			return nil
		}
		if _, err := migrations.Apply(ctx, gw.Pool(), rt.log); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// service builds the application service over whatever is configured. A nil
// gateway must not be stored in the interface, or the service could not tell
// that storage is missing.
func (rt *runtime) service(ctx context.Context) (app.ApplicationService, error) {
	client, err := ai.NewClient(ctx, ai.Config{
		GeminiAPIKey: rt.cfg.GeminiAPIKey,
		GeminiModel:  rt.cfg.GeminiModel,
		OpenAIAPIKey: rt.cfg.OpenAIAPIKey,
		OpenAIModel:  rt.cfg.OpenAIModel,
		Timeout:      rt.cfg.AITimeout,
	}, rt.log)
	if err != nil {
		return nil, fmt.Errorf("failed to build AI client: %w", err)
	}
	if !client.Configured() {
		rt.log.Info("no AI provider key set; suggestions are locked")
	} else {
		rt.log.Debug("ai providers configured", zap.Strings("order", client.Providers()))
	}

	var docs app.DocumentStore
	if rt.gateway != nil {
		docs = rt.gateway
	}
	return app.NewAppService(docs, ai.NewAssistant(client), app.Settings{
		DefaultCurrency: rt.cfg.DefaultCurrency,
		DefaultTaxRate:  rt.cfg.DefaultTaxRate,
		Prefixes: map[core.DocumentType]string{
			core.TypeInvoice: rt.cfg.Prefix(core.TypeInvoice),
			core.TypeQuote:   rt.cfg.Prefix(core.TypeQuote),
			core.TypeExpense: rt.cfg.Prefix(core.TypeExpense),
		},
	}, rt.log), nil
}

func (rt *runtime) close() {
	if rt.gateway != nil {
		rt.gateway.Close()
		rt.gateway = nil
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
}
