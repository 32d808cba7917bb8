package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"notequiz/internal/config"
)

const defaultConfigPath = "config/config.yaml"

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	port       string
	configPath string
	verbose    bool
}

// loadConfig reads the YAML config. Only the default path may be missing.
func (o *rootOptions) loadConfig() (config.Config, error) {
	return config.Load(o.configPath, o.configPath == defaultConfigPath)
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = defaultConfigPath
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "notequiz",
		Short:        "Turn study notes into timed multiple-choice quizzes",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(newStartCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newPlayCmd(opts))
	return cmd
}
