package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, meter, shutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	metrics, err := NewPurchaseMetrics(meter)
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	var (
		products   ProductRepository
		purchases  PurchaseRepository
		transactor Transactor = NoopTransactor{}
	)

	switch cfg.StorageDriver {
	case StorageDriverMemory:
		memProducts := NewMemoryProductRepository()
		products = memProducts
		purchases = NewMemoryPurchaseRepository(memProducts)
	default:
		dbPool, err := initDB(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer dbPool.Close()

		products = NewProductRepository(dbPool)
		purchases = NewPurchaseRepository(dbPool)
		if cfg.TxMode == TxModeSingle {
			transactor = NewPostgresTransactor(dbPool)
		}
	}

	if path := os.Getenv("PRODUCTS_SEED_FILE"); path != "" {
		if err := seedProducts(ctx, products, path); err != nil {
			logger.Fatal("Failed to seed products", zap.String("path", path), zap.Error(err))
		}
	}
	if catalog, err := products.FindAll(ctx); err == nil {
		logger.Info("Catalog loaded", zap.Int("products", len(catalog)))
	}

	validator := NewPurchaseValidator(products, tracer, logger)
	adjuster := NewInventoryAdjuster(products, tracer, logger, metrics)
	useCase := NewPurchaseUseCase(purchases, validator, adjuster, transactor, tracer, logger, metrics)
	handler := NewPurchaseHandler(useCase, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	registerRoutes(r, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", zap.Error(err))
		}
	}()

	logger.Info("Inventory Service listening",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
		zap.String("tx_mode", cfg.TxMode),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func initLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func initDB(ctx context.Context, cfg Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = cfg.DatabaseMaxConns
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			logger.Info("Connected to inventory database", zap.String("host", cfg.DatabaseHost))
			if _, err := pool.Exec(ctx, schemaSQL); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to apply schema: %w", err)
			}
			return pool, nil
		}
		logger.Info("Waiting for database...", zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}

func initTelemetry(ctx context.Context, cfg Config) (trace.Tracer, metric.Meter, func(context.Context) error, error) {
	if !cfg.OTelEnabled {
		noop := func(context.Context) error { return nil }
		return tracenoop.NewTracerProvider().Tracer(cfg.ServiceName), metricnoop.NewMeterProvider().Meter(cfg.ServiceName), noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	tp, err := initTracer(ctx, cfg, res)
	if err != nil {
		return nil, nil, nil, err
	}

	mp, err := initMetrics(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return err
		}
		return mp.Shutdown(ctx)
	}

	return tp.Tracer(cfg.ServiceName), mp.Meter(cfg.ServiceName), shutdown, nil
}

func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	otel.SetTracerProvider(tp)

	return tp, nil
}

func initMetrics(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

// seedProducts loads a JSON array of products into the catalog.
func seedProducts(ctx context.Context, products ProductRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var seed []Product
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	for i := range seed {
		if _, err := products.Save(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}
