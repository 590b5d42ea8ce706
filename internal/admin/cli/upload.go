package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/cadscribe/internal/upload"
)

type uploadOptions struct {
	url       string
	apiKey    string
	timeoutMs int
	debug     bool
}

func newUploadCmd(root *rootOptions) *cobra.Command {
	opts := uploadOptions{timeoutMs: 30000}
	cmd := &cobra.Command{
		Use:   "upload <file.stl>",
		Short: "Push an artifact to the configured CAD import endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := upload.Params{
				URL:     strings.TrimSpace(opts.url),
				APIKey:  strings.TrimSpace(opts.apiKey),
				Timeout: time.Duration(opts.timeoutMs) * time.Millisecond,
			}
			if cfg := root.config(); cfg != nil {
				if p.URL == "" {
					p.URL = cfg.Upload.URL
				}
				if p.APIKey == "" {
					p.APIKey = cfg.Upload.APIKey
				}
				if !cmd.Flags().Changed("timeout-ms") && cfg.Upload.TimeoutMs > 0 {
					p.Timeout = time.Duration(cfg.Upload.TimeoutMs) * time.Millisecond
				}
			}
			if opts.debug {
				p.DebugOut = cmd.ErrOrStderr()
			}
			return runUpload(cmd, p, args[0], cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.url, "url", "", "CAD import endpoint (default from config)")
	fs.StringVar(&opts.apiKey, "api-key", "", "bearer token (default from config)")
	fs.IntVar(&opts.timeoutMs, "timeout-ms", 30000, "request timeout")
	fs.BoolVar(&opts.debug, "debug", false, "print the raw upstream response to stderr")
	return cmd
}

func runUpload(cmd *cobra.Command, p upload.Params, file string, out io.Writer) error {
	c, err := upload.New(p)
	if err != nil {
		return err
	}
	remote, err := c.Upload(cmd.Context(), file)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(remote.Response())
	if err != nil {
		return err
	}
	id := remote.ID
	if id == "" {
		id = "-"
	}
	_, err = fmt.Fprintf(out, "remote_id=%s response=%s\n", id, raw)
	return err
}
