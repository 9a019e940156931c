package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/forkparse/internal/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var (
	configFile string
	verbosity  int
	cfg        = &config.Config{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "forkparse",
		Short: "A forking LR(0) parser generator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configFile)
			if err != nil {
				return err
			}
			cfg = loaded
			if !cmd.Flags().Changed("verbose") && cfg.Verbosity > 0 {
				verbosity = cfg.Verbosity
			}
			commonlog.Configure(verbosity, nil)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $"+config.EnvVar+" or "+config.DefaultFile+")")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newExplainCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newLSPCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
