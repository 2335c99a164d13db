package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mnp-lab/mnp-cli/internal/carrier"
	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/store"
)

// yen formats amounts with Japanese digit grouping for terminal output.
var yen = message.NewPrinter(language.Japanese)

func formatYen(amount int64) string {
	return yen.Sprintf("¥%d", amount)
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadRegistry builds the carrier registry from the configured rules
// file, falling back to the built-in tables.
func loadRegistry() (*carrier.Registry, error) {
	return carrier.LoadRegistry(cfg.Rules.Path)
}

// parseDate parses a YYYY-MM-DD flag value.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse date %q", s)
	}
	return t, nil
}

// parseCarrier validates a carrier flag against the registry.
func parseCarrier(reg *carrier.Registry, s string) (model.CarrierID, error) {
	id := model.CarrierID(s)
	if _, err := reg.RuleFor(id); err != nil {
		return "", err
	}
	return id, nil
}
