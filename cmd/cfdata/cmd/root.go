package cmd

import (
	"context"
	"fmt"
	"time"

	"surveyops/lib/serviceutil"
	"surveyops/lib/telemetry"
	"surveyops/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool

	config    Config
	providers telemetry.Telemetry
	tel       telemetry.API = telemetry.SlogAPI{}
)

var rootCmd = &cobra.Command{
	Use:   "cfdata",
	Short: "cfdata turns survey platform bulk downloads into export specifications and runs bulk survey operations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if cmd.Flags().Changed("debug") {
			config.Debug = debug
		}
		telemetry.InitSlog(config.Debug)

		err = timezone.SetLocation(config.Timezone)
		if err != nil {
			return err
		}

		providers, err = telemetry.Setup(cmd.Context(), "cfdata", config.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		if providers.MeterProvider != nil {
			telemetry.InstrumentPerfStats(cmd.Context(), 30*time.Second)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return providers.Shutdown(context.Background())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "surveyops.json5", "path to the json5 config, optional")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	addOutputFlags(rootCmd)
}

func Execute() {
	ctx, stop := serviceutil.SignalContext()
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		serviceutil.Fatal("cfdata failed", err)
	}
}
