package cmd

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/config"
	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.3.0"
	// appFs is the filesystem graph files, workbooks and artifacts are read
	// from and written to. Tests swap in a memory filesystem.
	appFs = afero.NewOsFs()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "explainer",
	Short: "bioTDMS explainer - team performance measurement ontology explorer",
	Long: `explainer loads the team-measurement ontology (constructs, measures,
modalities, analytic techniques, levels of analysis and the evidence that
links them) and answers questions over it:

  query     rank constructs semantically for free text
  set       show which constructs a measure set covers and where it is thin
  global    render the whole measure graph
  paths     find relationship paths between two constructs
  evidence  aggregate and explain the evidence between constructs
  merge     ingest a measures workbook into the instance graph

Graph files come from the config file (graph.paths) or --graph.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVersion(version)
		logger.SetCommand(cmd.CommandPath())
		logger.SetBasePath(config.GetDataDir())
		cfg := config.Default().Log
		if loaded, err := config.Load(); err == nil {
			cfg = loaded.Log
		}
		logger.Setup(cfg, viper.GetBool("verbose"))
		return nil
	},
}

// Execute runs the root command and exits with a stage-specific code on
// failure. This is called by main.main().
func Execute() {
	defer logger.HandlePanic()
	if err := rootCmd.Execute(); err != nil {
		PrintError(userMessage(err), err)
		os.Exit(exitCode(err))
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.explainer.yaml or $HOME/.explainer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringSlice("graph", nil, "graph file(s) to load, overrides graph.paths")

	// Bind persistent flags to Viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("graph.paths", rootCmd.PersistentFlags().Lookup("graph"))
}
