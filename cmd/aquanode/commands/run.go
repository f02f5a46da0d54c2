package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/aquanode/pkg/board"
	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/link"
	"github.com/itohio/aquanode/pkg/station"
	"github.com/itohio/aquanode/pkg/status"
	"github.com/itohio/aquanode/pkg/uplink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the station",
		Long: `Connects to the station board, reads and aggregates measurements and
delivers reports until interrupted. A status API is served on status.addr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Serial.Port = port
			}
			mock, _ := cmd.Flags().GetBool("mock")

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(os.Stdout, cfg.Debug.Enabled)
			defer logger.Sync()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cfg, mock, logger)
		},
	}

	cmd.Flags().StringP("port", "p", "", "Serial port override (e.g. COM3 or /dev/ttyUSB0)")
	cmd.Flags().Bool("mock", false, "Use a simulated board instead of the serial port")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, mock bool, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pub, err := uplink.New(cfg, uplink.NewMetrics(reg), logger)
	if err != nil {
		return fmt.Errorf("failed to create uplink: %w", err)
	}
	defer pub.Close()

	target, err := link.Target(cfg)
	if err != nil {
		return err
	}
	checker := link.DialChecker{Addr: target, Timeout: cfg.Uplink.Timeout}
	monitor := link.NewMonitor(checker, cfg.Retry.MaxLinkAttempts, cfg.Retry.Delay, nil, logger)

	var device board.Device
	if mock {
		logger.Info("using simulated board")
		device = board.NewMock(cfg)
	} else {
		device = board.New(cfg.Serial.Port, cfg.Debug.BaudRate, board.DefaultBufferSize, logger)
	}

	st := station.New(cfg, device, pub, monitor, nil, station.NewMetrics(reg), logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := status.New(cfg, st, reg, logger)
	srvDone := make(chan struct{})
	go func() {
		defer close(srvDone)
		if err := srv.Run(ctx); err != nil {
			logger.Error("status server failed", zap.Error(err))
		}
	}()

	err = st.Run(ctx)
	cancel()
	<-srvDone
	return err
}
