package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/cadscribe/internal/config"
	"github.com/r9s-ai/cadscribe/internal/pipeline"
	"github.com/r9s-ai/cadscribe/internal/shapes"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and the built-in vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := strings.TrimSpace(root.cfgPath)
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("config %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(out, "validate config: OK (backend=%s)\n", cfg.Generator.Backend)

			if _, err := newLocalService(cfg, "", ""); err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
			_, _ = fmt.Fprintln(out, "validate pipeline: OK")

			v := shapes.Default()
			for _, e := range v.Entries() {
				m := e.Shape.Build(pipeline.DefaultSize)
				if err := m.Validate(); err != nil {
					return fmt.Errorf("shape %s: %w", e.Keyword, err)
				}
			}
			_, err = fmt.Fprintf(out, "validate shapes: OK (%d keywords)\n", v.Len())
			return err
		},
	}
}
