package cli

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/ghissue/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ghissue configuration",
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: a.failOnError(func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil {
				cmd.PrintErrf("Config file already exists at %s\n", path)
				return nil
			}

			if err := config.Save(config.Default()); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
			return nil
		}),
	}

	configSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: a.failOnError(func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile()
			if err != nil {
				return err
			}

			if err := config.SetField(&cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		}),
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: a.failOnError(func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(nil)
			if err != nil {
				return err
			}

			data, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		}),
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: a.failOnError(func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}

	configCmd.AddCommand(configInitCmd, configSetCmd, configShowCmd, configPathCmd)
	return configCmd
}

// failOnError reports a runtime error from fn and exits with ExitFailure, so
// that ExitUsageError stays reserved for argument and flag errors.
func (a *app) failOnError(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			a.exitCode = ExitFailure
		}
		return nil
	}
}
