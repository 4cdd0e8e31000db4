package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/apperr"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the explainer configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd.OutOrStdout(), configPath(), configForce)
	},
}

// configShowCmd shows current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one dotted key in the configuration file, keeping the other settings.

Examples:
  explainer config set embedding.provider ollama
  explainer config set reasoner.max_hops 4
  explainer config set graph.paths ontology/schema.ttl,ontology/instances.ttl`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd.OutOrStdout(), configPath(), args[0], args[1])
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !viper.IsSet(args[0]) {
			return staged(stageConfig, apperr.NotFound("config key", args[0]))
		}
		fmt.Fprintln(cmd.OutOrStdout(), viper.Get(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configSetCmd, configGetCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

// configPath is --config or the file viper loaded, else ./.explainer.yaml.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "./" + config.ConfigName + ".yaml"
}

func runConfigInit(w io.Writer, path string, force bool) error {
	if err := config.Write(appFs, path, config.Default(), force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return staged(stageUsage, fmt.Errorf("%w (use --force to overwrite)", err))
		}
		return staged(stageConfig, err)
	}
	fmt.Fprintf(w, "%s wrote %s\n", ui.Icon("✓", ui.StyleSuccess), path)
	return nil
}

func runConfigShow(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# from %s\n", used)
	} else {
		fmt.Fprintln(w, "# defaults (no config file found)")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return staged(stageSerialize, fmt.Errorf("encode config: %w", err))
	}
	return enc.Close()
}

func runConfigSet(w io.Writer, path, key, raw string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return staged(stageUsage, apperr.InvalidArgument("empty key"))
	}
	if err := config.SetValue(appFs, path, key, parseConfigValue(key, raw)); err != nil {
		return staged(stageConfig, err)
	}
	fmt.Fprintf(w, "%s %s = %s (%s)\n", ui.Icon("✓", ui.StyleSuccess), key, raw, path)
	return nil
}

// parseConfigValue converts raw into the type the key expects: booleans,
// integers and comma lists for graph.paths.
func parseConfigValue(key, raw string) any {
	if key == "graph.paths" {
		var paths []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		return paths
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
