package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tievenr/sheetsql-sync/internal/obslog"
	"github.com/tievenr/sheetsql-sync/pkg/clock"
	"github.com/tievenr/sheetsql-sync/pkg/config"
	"github.com/tievenr/sheetsql-sync/pkg/control"
	"github.com/tievenr/sheetsql-sync/pkg/syncengine"
	"github.com/tievenr/sheetsql-sync/store/excelstore"
	"github.com/tievenr/sheetsql-sync/store/gormstore"
	"github.com/tievenr/sheetsql-sync/store/mysqlstore"
	"github.com/tievenr/sheetsql-sync/store/pgstore"
	"github.com/tievenr/sheetsql-sync/store/sqlitestore"
)

func main() {
	cfg := config.LoadConfigOrDefault()
	logger := obslog.New(obslog.ParseLevel(cfg.Log.Level), cfg.Log.File)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, closeDB, err := openDatabasePeer(ctx, cfg)
	if err != nil {
		log.Fatalf("open database peer: %v", err)
	}
	defer closeDB()

	sheet, err := excelstore.Open(cfg.Sheet.Path, cfg.Sheet.Name, cfg.Sync.PrimaryKeyColumn, nil)
	if err != nil {
		log.Fatalf("open spreadsheet peer: %v", err)
	}
	defer sheet.Close()

	engineCfg := syncengine.EngineConfig{
		PrimaryKeyColumn:  cfg.Sync.PrimaryKeyColumn,
		TimestampColumn:   cfg.Sync.TimestampColumn,
		SyncInterval:      cfg.Sync.Interval(),
		InitialSyncSource: initialSyncSource(cfg.Sync.InitialSyncSource),
	}
	engine := syncengine.NewEngine(engineCfg, db, sheet, clock.System{}, logger)

	if cfg.Control.ListenAddr != "" {
		go func() {
			srv := control.NewServer(engine)
			if err := srv.Start(cfg.Control.ListenAddr); err != nil {
				logger.Error("control_server_exited", "error", err)
			}
		}()
	}

	if err := engine.Start(ctx); err != nil {
		log.Fatalf("start sync engine: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown_signal_received")
	engine.Stop()
}

func initialSyncSource(s string) syncengine.Origin {
	if s == "sheet" {
		return syncengine.OriginSheet
	}
	return syncengine.OriginDB
}

// openDatabasePeer selects the database-side adapter named by
// cfg.Database.Driver. The returned close func releases the connection
// for mysql, postgres and sqlite; for gorm-mysql it is a no-op, since
// gormstore.Store has no Close method.
func openDatabasePeer(ctx context.Context, cfg *config.Config) (syncengine.TableStore, func(), error) {
	switch cfg.Database.Driver {
	case "mysql":
		store, err := mysqlstore.Open(ctx, cfg.Database.DSN, databaseNameFromDSN(cfg.Database.DSN), cfg.Database.Table, cfg.Sync.PrimaryKeyColumn)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		store, err := pgstore.Open(ctx, cfg.Database.DSN, cfg.Database.Table, cfg.Sync.PrimaryKeyColumn)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "gorm-mysql":
		store, err := gormstore.Open(cfg.Database.DSN, cfg.Database.Table, cfg.Sync.PrimaryKeyColumn)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "sqlite":
		store, err := sqlitestore.Open(ctx, cfg.Database.DSN, cfg.Database.Table, cfg.Sync.PrimaryKeyColumn, []string{cfg.Sync.PrimaryKeyColumn, cfg.Sync.TimestampColumn})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database.driver %q", cfg.Database.Driver)
	}
}

// databaseNameFromDSN extracts the schema name from a go-sql-driver/mysql
// DSN of the form "user:pass@tcp(host:port)/dbname", which INFORMATION_SCHEMA
// lookups need but the DSN itself otherwise hides from the driver.
func databaseNameFromDSN(dsn string) string {
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] == '/' {
			name := dsn[i+1:]
			for j, c := range name {
				if c == '?' {
					return name[:j]
				}
			}
			return name
		}
	}
	return ""
}
