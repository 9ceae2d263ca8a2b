package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/morozRed/flowdoc/internal/config"
	"github.com/morozRed/flowdoc/internal/fileutil"
	"github.com/morozRed/flowdoc/internal/ignore"
	"github.com/morozRed/flowdoc/internal/languages"
	"github.com/spf13/cobra"
)

const defaultIgnoreFile = `# Paths flowdoc skips while walking directories, one gitignore-style rule
# per line. .git/, flowdoc/, vendor/, and build/ are always skipped.
# third_party/
# !build/generated.cc
`

func (a *app) RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	configPath := filepath.Join(rootPath, config.FileName)
	created, err := config.WriteDefault(configPath)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	} else {
		fmt.Fprintf(out, "Kept existing %s\n", configPath)
	}

	ignorePath := filepath.Join(rootPath, ignore.FileName)
	if err := fileutil.WriteIfMissing(ignorePath, []byte(defaultIgnoreFile), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ignore.FileName, err)
	}

	noGenerate, err := OptionalBoolFlag(cmd, "no-generate", false)
	if err != nil {
		return err
	}
	if noGenerate {
		return nil
	}

	// Auto-generate if there are annotatable source files.
	registry := languages.NewDefaultRegistry()
	collection, err := registry.Collect([]string{rootPath}, nil)
	if err != nil || len(collection.Files) == 0 {
		fmt.Fprintf(out, "No source files (%s) found, skipping initial generate\n", strings.Join(registry.SupportedExtensions(), " "))
		return nil
	}
	fmt.Fprintln(out, "Running initial generate...")
	return a.RunAll(cmd, nil)
}
