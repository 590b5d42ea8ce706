package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/r9s-ai/cadscribe/internal/cadserver"
	"github.com/r9s-ai/cadscribe/internal/config"
	"github.com/r9s-ai/cadscribe/internal/generator"
	"github.com/r9s-ai/cadscribe/internal/version"
)

func main() {
	var cfgPath string
	var testConfig bool
	var showVersion bool
	flag.StringVar(&cfgPath, "config", "", "path to config yaml (defaults apply when empty)")
	flag.StringVar(&cfgPath, "c", "", "path to config yaml (alias of --config)")
	flag.BoolVar(&testConfig, "t", false, "test config and exit (no network)")
	flag.BoolVar(&showVersion, "V", false, "show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Get())
		return
	}

	// A local .env is optional.
	_ = godotenv.Load()

	if testConfig {
		if flag.NArg() == 1 && strings.TrimSpace(flag.Arg(0)) != "" {
			cfgPath = strings.TrimSpace(flag.Arg(0))
		}
		if err := runConfigTest(cfgPath); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "error: "+err.Error())
			os.Exit(1)
		}
		fmt.Println("configuration ok")
		return
	}

	if err := cadserver.Run(cfgPath); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func runConfigTest(cfgPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if strings.TrimSpace(cfgPath) == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fmt.Println("ok: config")

	if _, err := generator.New(generator.Config{
		Backend:    cfg.Generator.Backend,
		BaseURL:    cfg.Generator.BaseURL,
		APIKey:     cfg.Generator.APIKey,
		Model:      cfg.Generator.Model,
		EchoPrompt: cfg.EchoPrompt(),
		TimeoutMs:  cfg.Generator.TimeoutMs,
	}); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	fmt.Printf("ok: generator backend=%s\n", cfg.Generator.Backend)
	return nil
}
