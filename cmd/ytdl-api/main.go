package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ytdlapi/internal/adapters/downloader"
	"ytdlapi/internal/adapters/ffmpeg"
	"ytdlapi/internal/adapters/handlers"
	"ytdlapi/internal/adapters/localstorage"
	"ytdlapi/internal/adapters/youtube"
	"ytdlapi/internal/adapters/ytdlp"
	"ytdlapi/internal/config"
	"ytdlapi/internal/core/ports"
	"ytdlapi/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile     string
	addr        string
	downloadDir string
	engine      string
)

var rootCmd = &cobra.Command{
	Use:   "ytdl-api",
	Short: "HTTP API for downloading videos, audio and thumbnails",
	Long: `ytdl-api exposes a small HTTP API in front of a media extraction engine.

  GET /                              liveness
  GET /download?url=<url>&type=<t>   t is video (default), audio or thumbnail
  GET /file/<filename>               fetch a previously downloaded file

Example:
  ytdl-api --addr :8000 --download-dir ./downloads --engine ytdlp`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml if present)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8000)")
	rootCmd.Flags().StringVar(&downloadDir, "download-dir", "", "directory for downloaded files (default downloads)")
	rootCmd.Flags().StringVar(&engine, "engine", "", "extraction engine: ytdlp or youtube (default ytdlp)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if cmd.Flags().Changed("download-dir") {
		cfg.Storage.DownloadDir = downloadDir
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine.Name = engine
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	logger.Println("=== YouTube Downloader API ===")
	logger.Printf("Engine: %s", cfg.Engine.Name)
	logger.Printf("Download Directory: %s", cfg.Storage.DownloadDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage := localstorage.NewLocalStorage(cfg.Storage.DownloadDir)
	if err := storage.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	extractor, err := newExtractor(ctx, cfg, storage, logger)
	if err != nil {
		return err
	}

	svc := service.NewDownloadService(extractor, storage, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handlers.NewHTTPHandler(svc, logger).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("API server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Println("Server exited")
	return nil
}

func newExtractor(ctx context.Context, cfg *config.Config, storage *localstorage.LocalStorage, logger *log.Logger) (ports.Extractor, error) {
	switch cfg.Engine.Name {
	case config.EngineYouTube:
		transcoder := ffmpeg.NewTranscoder(ffmpeg.WithFFmpegPath(cfg.Engine.FFmpegPath))
		return youtube.NewNativeExtractor(
			nil,
			downloader.NewHTTPFetcher(nil),
			transcoder,
			storage,
			cfg.Engine.AudioBitrate,
			logger,
		), nil
	default:
		if cfg.Engine.AutoInstall && cfg.Engine.YtDlpPath == "" {
			logger.Println("Ensuring yt-dlp is installed...")
			if err := ytdlp.EnsureInstalled(ctx); err != nil {
				return nil, err
			}
		}
		return ytdlp.NewYtDlpExtractor(storage, logger,
			ytdlp.WithBinaryPath(cfg.Engine.YtDlpPath),
			ytdlp.WithFFmpegLocation(cfg.Engine.FFmpegPath),
			ytdlp.WithAudioQuality(cfg.Engine.AudioBitrate),
		), nil
	}
}
