package main

import (
	"context"
	"database/sql"

	"marrakech/internal/ports/nakama"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule proxies Nakama initialization to the nakama adapter package.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

// main is unused: Nakama loads this package with -buildmode=plugin and calls
// InitModule. It exists so the package links under a plain `go build ./...`.
func main() {}
