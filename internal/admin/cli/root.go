package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/cadscribe/internal/admin/store"
	"github.com/r9s-ai/cadscribe/internal/admin/tui"
	"github.com/r9s-ai/cadscribe/internal/config"
)

const defaultConfigPath = "cadscribe.yaml"

func Run(args []string) error {
	root := newRootCmd()
	if len(args) > 0 && strings.HasPrefix(args[0], "-") && args[0] != "-h" && args[0] != "--help" {
		// Flags only: default to `tui`.
		args = append([]string{"tui"}, args...)
	}
	root.SetArgs(args)
	return root.Execute()
}

type rootOptions struct {
	cfgPath string
}

// config loads the config best-effort; a missing or invalid file yields nil
// so offline commands keep working with built-in defaults.
func (o *rootOptions) config() *config.Config {
	cfg, _ := store.LoadConfigIfExists(strings.TrimSpace(o.cfgPath))
	return cfg
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "cadscribe-admin",
		Short:         "cadscribe admin CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", defaultConfigPath, "config yaml path")
	cmd.AddCommand(
		newShapesCmd(),
		newResolveCmd(),
		newBuildCmd(opts),
		newGenerateCmd(opts),
		newModifyCmd(opts),
		newInspectCmd(),
		newArtifactsCmd(opts),
		newDumpsCmd(opts),
		newUploadCmd(opts),
		newValidateCmd(opts),
		newTUICmd(opts),
	)
	return cmd
}

type tuiOptions struct {
	dumpsDir     string
	artifactsDir string
	noWatch      bool
}

func newTUICmd(root *rootOptions) *cobra.Command {
	var opts tuiOptions
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse traffic dumps and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.config()
			return tui.Run(tui.Options{
				DumpsDir:     store.ResolveDumpsDir(cfg, opts.dumpsDir),
				ArtifactsDir: store.ResolveArtifactsDir(cfg, opts.artifactsDir),
				Watch:        !opts.noWatch,
			}, os.Stdin, os.Stdout)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.dumpsDir, "dumps-dir", "", "traffic dump dir (default from config)")
	fs.StringVar(&opts.artifactsDir, "artifacts-dir", "", "artifact dir (default from config)")
	fs.BoolVar(&opts.noWatch, "no-watch", false, "disable live reload")
	return cmd
}
