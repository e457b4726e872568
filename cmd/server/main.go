package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"appointment-scheduler/internal/calsync"
	"appointment-scheduler/internal/config"
	gweb "appointment-scheduler/internal/grpcweb"
	"appointment-scheduler/internal/handler"
	"appointment-scheduler/internal/logging"
	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/reminder"
	"appointment-scheduler/internal/rpc"
	"appointment-scheduler/internal/service"
	"appointment-scheduler/internal/store"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "appointment-scheduler",
		Usage:  "Appointment scheduling API with calendar mirroring.",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the gRPC and gRPC-Web servers.",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply the database migrations and exit.",
				Action: migrate,
			},
			{
				Name:  "remind",
				Usage: "Print reminders for one owner as they come due.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Required: true, Usage: "user id whose appointments are watched"},
					&cli.BoolFlag{Name: "once", Usage: "Derive the reminders once and exit."},
				},
				Action: remind,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// backend is what both store drivers provide.
type backend interface {
	service.Store
	handler.Accounts
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *zap.Logger) (*store.Store, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	logger.Info("connected to postgres")
	return store.New(pool), pool.Close, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		return store.NewMemory(), func() {}, nil
	}

	st, closeFn, err := openPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	applied, err := st.Migrate(ctx)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	for _, name := range applied {
		logger.Info("migration applied", zap.String("file", name))
	}
	return st, closeFn, nil
}

func newSyncer(cfg config.Config, logger *zap.Logger) (calsync.Syncer, error) {
	switch cfg.CalendarProvider {
	case config.ProviderGoogle:
		return calsync.NewGoogle(logger, cfg.Google.CalendarID, cfg.Google.Endpoint), nil
	case config.ProviderCalDAV:
		return calsync.NewCalDAV(logger, cfg.CalDAV.URL, cfg.CalDAV.Username, cfg.CalDAV.Password, cfg.CalDAV.CalendarName)
	default:
		return calsync.Disabled{}, nil
	}
}

func newService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*service.Service, backend, func(), error) {
	st, closeFn, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	syncer, err := newSyncer(cfg, logger)
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return service.New(st, syncer, cfg.Location, logger), st, closeFn, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, st, closeFn, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	h := handler.New(svc, st, cfg.JWTSecret, handler.WithTTLs(cfg.AccessTTL, cfg.RefreshTTL))

	rl := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Logging(logger),
			middleware.Auth(cfg.JWTSecret),
		),
	)
	rpc.RegisterScheduleServiceServer(srv, h)

	grpcAddr := ":" + strconv.Itoa(cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		logger.Info("grpc listening", zap.String("addr", grpcAddr))
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc stopped", zap.Error(err))
		}
	}()

	// grpc-web bridge forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost"+grpcAddr, logger)
	if err != nil {
		return err
	}
	defer bridge.Close()

	httpSrv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WebPort),
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("grpc-web listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	srv.GracefulStop()
	return nil
}

func migrate(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrate needs STORE_DRIVER=%s", config.DriverPostgres)
	}
	st, closeFn, err := openPostgres(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	applied, err := st.Migrate(c.Context)
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Println("applied", name)
	}
	return nil
}

func remind(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, _, closeFn, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	r := reminder.New(svc, c.String("owner"), cfg.Location, logger)
	show := func(n model.Notification) {
		fmt.Printf("%s\t%s\t%s\n", n.FiresAt.In(cfg.Location).Format(time.RFC3339), n.Kind, n.AppointmentName)
	}

	if c.Bool("once") {
		fresh, err := r.Tick(ctx)
		if err != nil {
			return err
		}
		for _, n := range fresh {
			show(n)
		}
		return nil
	}
	return r.Run(ctx, cfg.ReminderSchedule, show)
}
