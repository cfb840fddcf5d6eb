package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsoniclang/tsumo/pkg/build"
	"github.com/tsoniclang/tsumo/pkg/engine"
	"github.com/tsoniclang/tsumo/pkg/server"
	"github.com/tsoniclang/tsumo/pkg/site"
	"github.com/tsoniclang/tsumo/pkg/theme"
)

var rootConfig string
var verbose bool

var rootCmd = cobra.Command{
	Use:   "tsumo",
	Short: "A static site generator with template inheritance and shortcodes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// runBuild loads the site from rootConfig and renders it to the output
// directory. Both the build and serve commands go through here.
func runBuild(ctx context.Context) (*site.Config, error) {
	cfg, err := site.LoadConfig(rootConfig)
	if err != nil {
		return nil, err
	}

	s, err := site.LoadSite(cfg)
	if err != nil {
		return nil, err
	}
	if err := site.LoadData(s, cfg.DataDir); err != nil {
		return nil, err
	}
	cacheDir := filepath.Join(filepath.Dir(rootConfig), ".tsumo-cache")
	if err := site.LoadRemoteData(ctx, s, cfg.DataSources, cacheDir); err != nil {
		return nil, err
	}

	funcs := engine.DefaultFuncs(engine.FuncOptions{
		BaseURL:      cfg.BaseURL,
		LanguageCode: cfg.LanguageCode,
	})
	th, err := theme.Load(cfg.LayoutDir, funcs)
	if err != nil {
		return nil, err
	}

	b := &build.Builder{
		Site:      s,
		Theme:     th,
		OutputDir: cfg.OutputDir,
	}
	if err := b.Build(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

var buildCmd = cobra.Command{
	Use:   "build",
	Short: "Render the site into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runBuild(cmd.Context())
		return err
	},
}

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve it with rebuild on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := site.LoadConfig(rootConfig)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		srv := &server.Server{
			Addr:      addr,
			OutputDir: cfg.OutputDir,
			Rebuild: func(ctx context.Context) error {
				_, err := runBuild(ctx)
				return err
			},
			WatchDirs: []string{cfg.ContentDir, cfg.LayoutDir, cfg.DataDir},
		}
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "tsumo.yaml", "Path to site configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(&buildCmd)

	serveCmd.Flags().String("addr", ":1313", "Address to serve on")
	rootCmd.AddCommand(&serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
