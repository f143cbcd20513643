// Package main is the mietwerk command line tool. It bundles database
// migration, seeding, settlement runs, exports and backups behind
// subcommands; there is no application HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/subosito/gotenv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"mietwerk/internal/backup"
	"mietwerk/internal/config"
	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/catalogs/apartment"
	"mietwerk/internal/domain/catalogs/building"
	"mietwerk/internal/domain/catalogs/costcategory"
	"mietwerk/internal/domain/catalogs/landlord"
	"mietwerk/internal/domain/catalogs/meter"
	"mietwerk/internal/domain/catalogs/tenant"
	"mietwerk/internal/domain/contracts"
	"mietwerk/internal/domain/costs"
	"mietwerk/internal/domain/finance"
	"mietwerk/internal/domain/readings"
	"mietwerk/internal/domain/settlement"
	"mietwerk/internal/infrastructure/export"
	"mietwerk/internal/infrastructure/storage/postgres"
	"mietwerk/internal/infrastructure/storage/postgres/catalog_repo"
	"mietwerk/internal/infrastructure/storage/postgres/record_repo"
	"mietwerk/internal/observability/metrics"
	"mietwerk/pkg/logger"
)

const dateLayout = "2006-01-02"

func main() {
	_ = gotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	configPath := os.Getenv("MIETWERK_CONFIG")
	if configPath == "" {
		configPath = "config/example.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", configPath, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	metrics.Init()

	if err := run(ctx, cfg, command, args); err != nil {
		log.Errorw("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, command string, args []string) error {
	switch command {
	case "migrate":
		return runMigrate(ctx, cfg)
	case "seed":
		return withApp(ctx, cfg, func(a *app) error { return runSeed(ctx, a) })
	case "settle":
		return withApp(ctx, cfg, func(a *app) error { return runSettle(ctx, a, args) })
	case "export-readings":
		return withApp(ctx, cfg, func(a *app) error { return runExportReadings(ctx, a, args) })
	case "backup":
		return withApp(ctx, cfg, func(a *app) error { return runBackup(ctx, a) })
	case "restore":
		return withApp(ctx, cfg, func(a *app) error { return runRestore(ctx, a, args) })
	case "serve":
		return withApp(ctx, cfg, func(a *app) error { return runServe(ctx, cfg, a) })
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: mietwerk <command> [flags]

commands:
  migrate                              apply database migrations
  seed                                 load demo data
  settle -apartment ID -from D -to D   calculate and store a settlement
  export-readings -building ID -out F  export meter readings to .xlsx
  backup                               create a backup archive
  restore -in FILE                     restore from a backup archive
  serve                                run metrics listener and backup scheduler`)
}

func runMigrate(ctx context.Context, cfg config.Config) error {
	db, err := goose.OpenDBWithDriver("pgx", cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info(ctx, "migrations applied")
	return nil
}

// app holds the wired service graph for one command invocation.
type app struct {
	pool *postgres.Pool
	txm  *postgres.TxManager

	buildings   *building.Service
	apartments  *apartment.Service
	tenants     *tenant.Service
	landlords   *landlord.Service
	meters      *meter.Service
	meterTypes  *meter.TypeService
	categories  *costcategory.Service
	contracts   *contracts.Service
	costs       *costs.Service
	readings    *readings.Service
	incomes     *finance.Service
	settlements *settlement.Service

	exporter *export.ReadingsExporter
	backups  *backup.Manager
}

func withApp(ctx context.Context, cfg config.Config, fn func(a *app) error) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.pool.Close()
	return fn(a)
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolCfg.MinConns = cfg.Postgres.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info(ctx, "database connection established")

	txm := postgres.NewTxManager(pool.Pool)

	buildingSvc := building.NewService(catalog_repo.NewBuildingRepo(txm), txm)
	apartmentSvc := apartment.NewService(catalog_repo.NewApartmentRepo(txm), txm)
	tenantSvc := tenant.NewService(catalog_repo.NewTenantRepo(txm), txm)
	landlordSvc := landlord.NewService(catalog_repo.NewLandlordRepo(txm), txm)
	categorySvc := costcategory.NewService(catalog_repo.NewCostCategoryRepo(txm), txm)

	meterTypeRepo := catalog_repo.NewMeterTypeRepo(txm)
	meterSvc := meter.NewService(catalog_repo.NewMeterRepo(txm), meterTypeRepo, txm)
	meterTypeSvc := meter.NewTypeService(meterTypeRepo, txm)

	contractSvc := contracts.NewService(record_repo.NewContractRepo(txm), txm)
	costSvc := costs.NewService(record_repo.NewCostRecordRepo(txm), txm)
	incomeSvc := finance.NewService(record_repo.NewIncomeRepo(txm), txm)

	readingRepo := record_repo.NewReadingRepo(txm)
	validator := readings.NewHierarchyValidator(meterSvc, readingRepo, cfg.Meters.DisableHierarchyChecks)
	readingSvc := readings.NewService(readingRepo, meterSvc, validator, txm)

	calc := settlement.NewCalculator(settlement.CalculatorDeps{
		Buildings:   buildingSvc,
		Apartments:  apartmentSvc,
		Tenants:     tenantSvc,
		Landlords:   landlordSvc,
		Contracts:   contractSvc,
		Costs:       costSvc,
		Meters:      meterSvc,
		MeterTypes:  meterTypeSvc,
		Consumption: readingSvc.Resolver(),
		Advances:    incomeSvc,
	})
	settlementSvc := settlement.NewService(calc, record_repo.NewSettlementRepo(txm), txm)

	return &app{
		pool:        pool,
		txm:         txm,
		buildings:   buildingSvc,
		apartments:  apartmentSvc,
		tenants:     tenantSvc,
		landlords:   landlordSvc,
		meters:      meterSvc,
		meterTypes:  meterTypeSvc,
		categories:  categorySvc,
		contracts:   contractSvc,
		costs:       costSvc,
		readings:    readingSvc,
		incomes:     incomeSvc,
		settlements: settlementSvc,
		exporter:    export.NewReadingsExporter(buildingSvc, meterSvc, meterTypeSvc, readingSvc),
		backups: backup.NewManager(txm, backup.Config{
			Dir:  cfg.Backup.Dir,
			Keep: cfg.Backup.Keep,
		}),
	}, nil
}

func runSettle(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("settle", flag.ExitOnError)
	apartmentFlag := fs.String("apartment", "", "apartment ID")
	fromFlag := fs.String("from", "", "period start (YYYY-MM-DD)")
	toFlag := fs.String("to", "", "period end (YYYY-MM-DD)")
	dryRun := fs.Bool("dry-run", false, "calculate without storing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	apartmentID, err := id.Parse(*apartmentFlag)
	if err != nil {
		return fmt.Errorf("invalid -apartment: %w", err)
	}
	from, err := time.Parse(dateLayout, *fromFlag)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	to, err := time.Parse(dateLayout, *toFlag)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}

	var stl *settlement.Settlement
	if *dryRun {
		stl, err = a.settlements.Calculate(ctx, apartmentID, from, to)
	} else {
		stl, err = a.settlements.CalculateAndStore(ctx, apartmentID, from, to)
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(stl, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runExportReadings(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export-readings", flag.ExitOnError)
	buildingFlag := fs.String("building", "", "building ID")
	outFlag := fs.String("out", "readings.xlsx", "output file")
	fromFlag := fs.String("from", "", "earliest reading date (YYYY-MM-DD)")
	toFlag := fs.String("to", "", "latest reading date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	buildingID, err := id.Parse(*buildingFlag)
	if err != nil {
		return fmt.Errorf("invalid -building: %w", err)
	}

	var filter export.Filter
	if *fromFlag != "" {
		from, err := time.Parse(dateLayout, *fromFlag)
		if err != nil {
			return fmt.Errorf("invalid -from: %w", err)
		}
		filter.From = &from
	}
	if *toFlag != "" {
		to, err := time.Parse(dateLayout, *toFlag)
		if err != nil {
			return fmt.Errorf("invalid -to: %w", err)
		}
		filter.To = &to
	}

	return a.exporter.ExportToFile(ctx, buildingID, filter, *outFlag)
}

func runBackup(ctx context.Context, a *app) error {
	path, err := a.backups.Create(ctx)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runRestore(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	inFlag := fs.String("in", "", "backup archive path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inFlag == "" {
		return fmt.Errorf("-in is required")
	}
	return a.backups.Restore(ctx, *inFlag)
}

func runServe(ctx context.Context, cfg config.Config, a *app) error {
	scheduler := backup.NewScheduler(a.backups, cfg.Backup.Interval)
	go scheduler.Start(ctx)
	logger.Info(ctx, "backup scheduler started", "interval", cfg.Backup.Interval)

	var srv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "metrics listener failed", "error", err)
			}
		}()
		logger.Info(ctx, "metrics listener started", "addr", cfg.Metrics.Addr)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		_ = srv.Shutdown(shutdownCtx)
	}
	logger.Info(shutdownCtx, "shutdown complete")
	return nil
}
