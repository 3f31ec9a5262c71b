package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/config"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/database"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/imageenc"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/imagesource"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/logging"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/profilecache"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/profileform"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/regclient"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/terminal"
	"gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", "", "path to profilectl.yaml")
	serverURL := flag.String("server", "", "registration service base URL (overrides config)")
	signIn := flag.Bool("signin", false, "start in sign-in mode")
	flag.Parse()

	if err := run(*configPath, *serverURL, *signIn); err != nil {
		fmt.Fprintln(os.Stderr, "profilectl:", err)
		os.Exit(1)
	}
}

func run(configPath, serverURL string, signIn bool) error {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}

	log := logging.NewText(os.Stderr, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.CacheDriver, cfg.CacheDSN, logger.Silent)
	if err != nil {
		return fmt.Errorf("open profile cache: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	cache, err := profilecache.NewGormStore(db)
	if err != nil {
		return err
	}

	client, err := regclient.New(cfg.ServerURL,
		regclient.WithTimeout(cfg.Timeout),
		regclient.WithUserAgent("profilectl"),
		regclient.WithLogger(log),
	)
	if err != nil {
		return err
	}

	encoder, err := newEncoder(cfg)
	if err != nil {
		return err
	}

	var opts []profileform.Option
	if signIn {
		opts = append(opts, profileform.WithMode(profileform.ModeSignIn))
	}
	form := profileform.New(profileform.Deps{
		Registrar: client,
		Encoder:   encoder,
		Cache:     cache,
		Logger:    log,
	}, opts...)

	console := terminal.NewConsole(os.Stdin, os.Stdout)
	provider := imagesource.NewProvider(providerDeps(cfg, console, log), form)

	return terminal.NewHost(console, form, provider, log).Run(ctx)
}

func newEncoder(cfg *config.ClientConfig) (*imageenc.Encoder, error) {
	enc := imageenc.New()
	if cfg.JPEGQuality > 0 {
		enc.Quality = cfg.JPEGQuality
	}
	if cfg.MaxDimension > 0 {
		enc.MaxDimension = cfg.MaxDimension
	}
	if cfg.EmojiSize > 0 {
		enc.EmojiSize = cfg.EmojiSize
	}
	if cfg.EmojiFontPath != "" {
		face, err := imageenc.LoadFace(cfg.EmojiFontPath, float64(enc.EmojiSize)*0.7)
		if err != nil {
			return nil, err
		}
		enc.Face = face
	}
	return enc, nil
}

func providerDeps(cfg *config.ClientConfig, console *terminal.Console, log *slog.Logger) imagesource.ProviderDeps {
	dir := cfg.PicturesDir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, "Pictures", "profilectl")
		} else {
			dir = filepath.Join(os.TempDir(), "profilectl")
		}
	}

	deps := imagesource.ProviderDeps{
		Locations: &imagesource.DirLocations{Dir: dir},
		Gallery:   &imagesource.PromptGallery{Prompter: console},
		Logger:    log,
	}
	if cfg.CameraGranted {
		deps.Permissions = imagesource.StaticPermissions(true)
	} else {
		deps.Permissions = &imagesource.PromptPermissions{Prompter: console}
	}
	if cfg.CameraCommand != "" {
		deps.Camera = &imagesource.CommandCamera{Command: cfg.CameraCommand, Timeout: cfg.CameraTimeout}
	}
	return deps
}
