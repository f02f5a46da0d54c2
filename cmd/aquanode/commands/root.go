package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/itohio/aquanode/pkg/config"
	"github.com/itohio/aquanode/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   version.BinaryName,
		Short: "Water-quality sensor station",
		Long: `Host side of the canal water-quality station.

Reads temperature, pH, turbidity and TDS from the station board over a
serial link, aggregates them and delivers periodic reports to the backend
over HTTP, MQTT or Kafka.`,
		Version:       version.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "config.yaml", "Configuration file path")

	root.AddCommand(newRunCmd(), newValidateCmd(), newDefaultsCmd(), newPortsCmd())
	return root
}

// Execute is the main entry point for our cobra commands.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger writes JSON at info level to out, or human readable console
// output at debug level when debug output is enabled in the configuration.
func newLogger(out io.Writer, debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if debug {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core).With(zap.String("version", version.Version))
}
