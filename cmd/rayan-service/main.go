package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/config"
	"github.com/Fahmy112/Al-Rayan-Service/internal/hub"
	"github.com/Fahmy112/Al-Rayan-Service/internal/i18n"
	"github.com/Fahmy112/Al-Rayan-Service/internal/logging"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store/memory"
	mongostore "github.com/Fahmy112/Al-Rayan-Service/internal/store/mongo"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store/postgres"
	"github.com/Fahmy112/Al-Rayan-Service/internal/telemetry"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const serviceName = "rayan-service"

// commandTimeout bounds one-shot commands such as seeding and reports.
const commandTimeout = 2 * time.Minute

func main() {
	root, err := newRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs once flags and env are resolved.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() (*cobra.Command, error) {
	v, err := config.New()
	if err != nil {
		return nil, err
	}
	a := &app{v: v}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Al-Rayan auto service workshop: requests, spares and accounts",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("db-driver", config.DriverMongo, "storage backend: mongo, postgres or memory")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "json", "log format: json or console")
	flags.String("lang", "ar", "default language for labels and invoices")
	for key, name := range map[string]string{
		"db_driver":    "db-driver",
		"log_level":    "log-level",
		"log_format":   "log-format",
		"default_lang": "lang",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	root.AddCommand(
		newServeCmd(a),
		newSeedCmd(a),
		newReportCmd(a),
		newSparesCmd(a),
	)
	return root, nil
}

func (a *app) load() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.With(zap.String("service", serviceName))
	return nil
}

func (a *app) tracing() telemetry.Exporter {
	return telemetry.Exporter{
		Endpoint:    a.cfg.OTLPEndpoint,
		Insecure:    a.cfg.OTLPInsecure,
		SampleRatio: a.cfg.TraceSampleRatio,
	}
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.DBDriver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, a.cfg.DatabaseURL, uint(a.cfg.DBConnectAttempts), a.logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.NewStore(pool), nil
	default:
		return mongostore.Connect(ctx, mongostore.Options{
			URI:             a.cfg.MongoURI,
			Database:        a.cfg.MongoDatabase,
			ConnectAttempts: uint(a.cfg.DBConnectAttempts),
			Logger:          a.logger,
		})
	}
}

func (a *app) newService(st store.Store, realtime *hub.Hub) (*workshop.Service, error) {
	translator, err := i18n.New(a.cfg.DefaultLang)
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	var publisher workshop.Publisher
	if realtime != nil {
		publisher = realtime
	}
	return workshop.New(st, translator, publisher, a.logger, workshop.Options{
		LowStockThreshold: a.cfg.LowStockThreshold,
		ShopName:          a.cfg.ShopName,
		Location:          loc,
	}), nil
}

// withService opens the store for a one-shot command and closes it after. fn
// runs under the same deadline as the open.
func (a *app) withService(ctx context.Context, fn func(context.Context, *workshop.Service) error) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}()

	service, err := a.newService(st, nil)
	if err != nil {
		return err
	}
	return fn(ctx, service)
}
