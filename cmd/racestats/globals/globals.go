package globals

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"racestats/internal/config"
	"racestats/internal/store"
	"racestats/lib/telemetry"
)

type ctxKey struct{}

type Value struct {
	Config    config.Config
	Telemetry telemetry.Telemetry
	// DumpHttp is the directory http messages are written to, it may be empty.
	DumpHttp string

	once  sync.Once
	db    *sql.DB
	store store.Store
	err   error
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, ctxKey{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(ctxKey{}).(*Value)
}

// Store opens the configured database on first use.
func (v *Value) Store(ctx context.Context) (store.Store, error) {
	v.once.Do(func() {
		v.db, v.err = store.Open(ctx, v.Config.Store)
		if v.err != nil {
			v.err = fmt.Errorf("open database: %w", v.err)
			return
		}
		v.store = store.New(v.db)
	})
	return v.store, v.err
}

func (v *Value) Close() error {
	if v.db == nil {
		return nil
	}
	return v.db.Close()
}
