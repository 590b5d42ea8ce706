package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/cadscribe/internal/admin/store"
	"github.com/r9s-ai/cadscribe/internal/artifact"
	"github.com/r9s-ai/cadscribe/internal/config"
	"github.com/r9s-ai/cadscribe/internal/generator"
	"github.com/r9s-ai/cadscribe/internal/modify"
	"github.com/r9s-ai/cadscribe/internal/pipeline"
	"github.com/r9s-ai/cadscribe/internal/shapes"
)

type buildOptions struct {
	size float64
	dir  string
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := buildOptions{size: pipeline.DefaultSize}
	cmd := &cobra.Command{
		Use:   "build <keyword>",
		Short: "Export the shape bound to a keyword without a generator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kw := strings.ToLower(strings.TrimSpace(args[0]))
			e, ok := shapes.Default().Lookup(kw)
			if !ok {
				return fmt.Errorf("unknown keyword %q (see `shapes`)", kw)
			}
			if opts.size <= 0 {
				return fmt.Errorf("size must be positive, got %v", opts.size)
			}
			st, err := artifact.NewStore(store.ResolveArtifactsDir(root.config(), opts.dir))
			if err != nil {
				return err
			}
			path, err := st.Save(e.Shape.Build(opts.size), e.Keyword)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	fs := cmd.Flags()
	fs.Float64Var(&opts.size, "size", pipeline.DefaultSize, "characteristic size in mm")
	fs.StringVar(&opts.dir, "dir", "", "artifact dir (default from config)")
	return cmd
}

type generateOptions struct {
	size         float64
	complexity   string
	modification string
	backend      string
	dir          string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := generateOptions{size: pipeline.DefaultSize, complexity: pipeline.DefaultComplexity}
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Run the prompt-to-STL pipeline locally",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newLocalService(root.config(), opts.backend, opts.dir)
			if err != nil {
				return err
			}
			req := pipeline.GenerateRequest{
				Prompt:     strings.Join(args, " "),
				Size:       opts.size,
				Complexity: opts.complexity,
			}
			out := cmd.OutOrStdout()
			if strings.TrimSpace(opts.modification) == "" {
				res, err := svc.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "%s\t%s\n", res.Keyword, res.Path)
				return err
			}
			res, err := svc.Modify(cmd.Context(), pipeline.ModifyRequest{GenerateRequest: req, Modification: opts.modification})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\t%s\n%s\t%s\n", res.Base.Keyword, res.Base.Path, modifyLabel(res.Modified), res.Path())
			return err
		},
	}
	fs := cmd.Flags()
	fs.Float64Var(&opts.size, "size", pipeline.DefaultSize, "characteristic size in mm")
	fs.StringVar(&opts.complexity, "complexity", pipeline.DefaultComplexity, "complexity hint for the prompt")
	fs.StringVar(&opts.modification, "modify", "", "modification instruction to apply after generation")
	fs.StringVar(&opts.backend, "backend", "", "generator backend override (openai|echo)")
	fs.StringVar(&opts.dir, "dir", "", "artifact dir (default from config)")
	return cmd
}

func modifyLabel(r modify.Result) string {
	if r.Applied {
		return "modified"
	}
	return "unchanged(" + r.Reason + ")"
}

// newLocalService wires a pipeline from cfg. Without a config the echo
// backend is used.
func newLocalService(cfg *config.Config, backend, dir string) (*pipeline.Service, error) {
	gcfg := generator.Config{Backend: generator.BackendEcho}
	var signed bool
	var tmpl string
	if cfg != nil {
		gcfg = generator.Config{
			Backend: cfg.Generator.Backend,
			BaseURL: cfg.Generator.BaseURL,
			APIKey:  cfg.Generator.APIKey,
			Model:   cfg.Generator.Model,
			Options: generator.Options{
				MaxTokens:   cfg.Generator.MaxTokens,
				Temperature: cfg.Generator.Temperature,
				TopP:        cfg.Generator.TopP,
			},
			EchoPrompt: cfg.EchoPrompt(),
			TimeoutMs:  cfg.Generator.TimeoutMs,
		}
		signed = cfg.Modify.SignedAxisScaling
		tmpl = cfg.Generator.PromptTemplate
	}
	if b := strings.TrimSpace(backend); b != "" {
		gcfg.Backend = strings.ToLower(b)
	}
	gen, err := generator.New(gcfg)
	if err != nil {
		return nil, err
	}
	st, err := artifact.NewStore(store.ResolveArtifactsDir(cfg, dir))
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Deps{
		Vocabulary:     shapes.Default(),
		Generator:      gen,
		Store:          st,
		Engine:         modify.NewEngine(st, modify.Options{SignedAxisScaling: signed}, nil, nil),
		Backend:        gcfg.Backend,
		PromptTemplate: tmpl,
	})
}

type modifyOptions struct {
	signed bool
}

func newModifyCmd(root *rootOptions) *cobra.Command {
	var opts modifyOptions
	cmd := &cobra.Command{
		Use:   "modify <file.stl> <instruction>",
		Short: "Apply a scaling instruction to an existing STL",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			signed := opts.signed
			if cfg := root.config(); cfg != nil && !cmd.Flags().Changed("signed") {
				signed = cfg.Modify.SignedAxisScaling
			}
			// Output lands next to the input file.
			st, err := artifact.NewStore(filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			eng := modify.NewEngine(st, modify.Options{SignedAxisScaling: signed}, nil, nil)
			res, err := eng.Modify(context.Background(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Applied {
				_, err = fmt.Fprintf(out, "%s\t%s\n", modifyLabel(res), res.Path)
				return err
			}
			f := res.Factors
			_, err = fmt.Fprintf(out, "modified\t%s\tfactors=%g,%g,%g\n", res.Path, f[0], f[1], f[2])
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.signed, "signed", false, "let decrease shrink length/width/height")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.stl>...",
		Short: "Print geometry stats of STL files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, p := range args {
				rep, err := store.DescribeArtifact(p)
				if err != nil {
					return err
				}
				if i > 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				if _, err := fmt.Fprint(cmd.OutOrStdout(), rep.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

type listOptions struct {
	dir   string
	limit int
}

func newArtifactsCmd(root *rootOptions) *cobra.Command {
	opts := listOptions{limit: 50}
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List exported artifacts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := store.ResolveArtifactsDir(root.config(), opts.dir)
			list, err := store.ListArtifacts(dir, opts.limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, a := range list {
				rows = append(rows, []string{
					a.ModTime.Format("2006-01-02 15:04:05"),
					a.Suffix,
					strconv.FormatInt(a.Size, 10),
					a.Name,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"time", "suffix", "bytes", "name"}, rows))
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.dir, "dir", "", "artifact dir (default from config)")
	fs.IntVar(&opts.limit, "limit", 50, "max rows")
	return cmd
}

func newDumpsCmd(root *rootOptions) *cobra.Command {
	opts := listOptions{limit: 50}
	cmd := &cobra.Command{
		Use:   "dumps",
		Short: "Summarize traffic dump files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := store.ResolveDumpsDir(root.config(), opts.dir)
			list, err := store.ListDumpSummaries(store.DumpListOptions{Dir: dir, Limit: opts.limit})
			if err != nil {
				return err
			}
			for _, d := range list {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), store.FormatDumpRow(d)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.dir, "dir", "", "traffic dump dir (default from config)")
	fs.IntVar(&opts.limit, "limit", 50, "max rows")
	return cmd
}
