package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/betbot/tradedesk/pkg/config"
	"github.com/betbot/tradedesk/pkg/logger"
)

var (
	cfgFile string
	envFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "tradedesk",
	Short:         "Crypto portfolio and trading-bot dashboard backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		// .env 可选；不存在时直接用真实环境变量
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file %s: %w", envFile, err)
			}
		} else {
			_ = godotenv.Load()
		}

		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		return logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputFile: cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		})
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger.Errorf("%v", err)
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (env vars override it)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file to load (default ./.env if present)")
	rootCmd.AddCommand(serveCmd, seedBotsCmd, versionCmd)
}
