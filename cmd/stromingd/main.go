// Command stromingd serves an in-memory stream store over HTTP and,
// optionally, the Redis protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/terraskye/stroming"
	"github.com/terraskye/stroming/internal/config"
	"github.com/terraskye/stroming/logging"
	storeotel "github.com/terraskye/stroming/otel"
	"github.com/terraskye/stroming/streamstore/memory"
	"github.com/terraskye/stroming/transport/rest"
	"github.com/terraskye/stroming/transport/resp"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stromingd",
		Short:         "In-memory event stream store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("config", "", "Path to a YAML config file")
	cmd.Flags().String("http-addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().String("resp-addr", "", "RESP listen address (overrides config)")
	cmd.Flags().Bool("resp", false, "Serve the Redis protocol")
	cmd.Flags().Bool("telemetry", false, "Trace and measure store operations")
	cmd.Flags().String("log-level", "", "Log level (overrides config)")
	cmd.Flags().String("log-format", "", "Log format, text or json (overrides config)")
	return cmd
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("http-addr") {
		cfg.HTTP.Addr, _ = flags.GetString("http-addr")
	}
	if flags.Changed("resp-addr") {
		cfg.RESP.Addr, _ = flags.GetString("resp-addr")
	}
	if flags.Changed("resp") {
		cfg.RESP.Enabled, _ = flags.GetBool("resp")
	}
	if flags.Changed("telemetry") {
		cfg.Telemetry.Enabled, _ = flags.GetBool("telemetry")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	return cfg, cfg.Validate()
}

// buildStore stacks the decorators around the memory store: telemetry
// first, logging outermost. A nil tel leaves telemetry out.
func buildStore(logger *logrus.Entry, tel *telemetry) (stroming.StreamStore, error) {
	var store stroming.StreamStore = memory.New()
	if tel != nil {
		traced, err := storeotel.WithStoreTelemetry(store, tel.options()...)
		if err != nil {
			return nil, err
		}
		store = traced
	}
	return logging.WithStoreLogging(logger.WithField("component", "store"), store), nil
}

func run(ctx context.Context, cfg config.Config) error {
	base, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger := logrus.NewEntry(base)
	gin.SetMode(cfg.HTTP.Mode)

	var tel *telemetry
	if cfg.Telemetry.Enabled {
		if tel, err = newTelemetry(cfg.Telemetry, os.Stdout); err != nil {
			return err
		}
		defer func() {
			if err := tel.Shutdown(context.Background()); err != nil {
				logger.WithError(err).Warn("shutdown telemetry providers")
			}
		}()
	}

	store, err := buildStore(logger, tel)
	if err != nil {
		return err
	}
	defer store.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rest.NewServer(store, logger.WithField("transport", "http")).Run(ctx, cfg.HTTP.Addr)
	})
	if cfg.RESP.Enabled {
		g.Go(func() error {
			return resp.NewServer(store, logger.WithField("transport", "resp")).Run(ctx, cfg.RESP.Addr)
		})
	}

	logger.Info("stromingd started")
	err = g.Wait()
	logger.Info("stromingd stopped")
	return err
}

// telemetry owns the SDK providers behind the telemetry decorator. Spans
// are batched and metrics read periodically, both written to one writer.
type telemetry struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

func newTelemetry(cfg config.Telemetry, out io.Writer) (*telemetry, error) {
	interval, err := cfg.ExportInterval()
	if err != nil {
		return nil, fmt.Errorf("telemetry interval: %w", err)
	}

	spans, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", "stromingd"))
	return &telemetry{
		tp: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spans),
			sdktrace.WithResource(res),
		),
		mp: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		),
	}, nil
}

func (t *telemetry) options() []storeotel.Option {
	return []storeotel.Option{
		storeotel.WithTracerProvider(t.tp),
		storeotel.WithMeterProvider(t.mp),
	}
}

// Shutdown flushes pending spans and a final metric collection.
func (t *telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.tp.Shutdown(ctx), t.mp.Shutdown(ctx))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
