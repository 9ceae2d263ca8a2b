package cli

import (
	"fmt"

	"github.com/morozRed/flowdoc/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCommand(version string) *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "flowdoc",
		Short: "Generate flow diagrams from //$ source annotations",
		Long: `Flowdoc reads //$ annotation comments in C++ and Go sources and turns
every annotated function into PlantUML activity diagrams at up to three
zoom levels, linked across files through per-file symbol databases.

Output is written to flowdoc/ (diagram sources under flowdoc/aux_files/)
and can be rendered with plantuml.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./"+config.FileName+")")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.String("log-format", "", "Log format: text|json")
	flags.String("out", "", "Output directory (default: flowdoc)")
	a.bind("log.level", flags.Lookup("log-level"))
	a.bind("log.format", flags.Lookup("log-format"))
	a.bind("output.dir", flags.Lookup("out"))

	// Setup Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .flowdoc.yaml and .flowdocignore",
		Args:  cobra.NoArgs,
		RunE:  a.RunInit,
	}
	initCmd.Flags().Bool("no-generate", false, "Write config files only, skip the initial run")

	// Phase Commands
	dbCmd := &cobra.Command{
		Use:   "db [path...]",
		Short: "Build the per-file symbol databases",
		RunE:  a.RunDB,
	}
	dbCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	diagramsCmd := &cobra.Command{
		Use:   "diagrams [path...]",
		Short: "Write diagram sources for every annotated function",
		RunE:  a.RunDiagrams,
	}
	diagramsCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	htmlCmd := &cobra.Command{
		Use:   "html",
		Short: "Write one HTML page per source file from the symbol databases",
		Args:  cobra.NoArgs,
		RunE:  a.RunHTML,
	}
	htmlCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	runCmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Build databases, diagrams, and pages in one pass",
		RunE:  a.RunAll,
	}
	runCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	runCmd.Flags().Bool("html", true, "Write HTML pages")
	a.bind("output.html", runCmd.Flags().Lookup("html"))

	// Inspect Commands
	doctorCmd := &cobra.Command{
		Use:   "doctor [path...]",
		Short: "Check that databases and pages are present and current",
		RunE:  a.RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	// Additional Commands
	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install git pre-commit hook that regenerates diagrams",
		Args:  cobra.NoArgs,
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowdoc %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		dbCmd,
		diagramsCmd,
		htmlCmd,
		runCmd,
		doctorCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}
