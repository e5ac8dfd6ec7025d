package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gowvp/curation/internal/app"
	"github.com/gowvp/curation/internal/conf"
)

// buildVersion 编译时通过 -ldflags "-X main.buildVersion=v1.0.0" 注入
var buildVersion = "dev"

func main() {
	configPath := flag.String("conf", "configs/config.toml", "配置文件路径")
	flag.Parse()

	bc, err := conf.SetupConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "SetupConfig:", err)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion

	closeLog, err := setupLog(bc.Log, bc.Server.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setupLog:", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, bc); err != nil {
		slog.Error("app exit", "err", err)
		closeLog()
		os.Exit(1)
	}
	slog.Info("app stopped")
}

// setupLog 调试模式输出文本日志，否则输出 JSON，配置了目录时同时写入文件
func setupLog(cfg conf.Log, debug bool) (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(filepath.Join(cfg.Dir, "curation.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(os.Stdout, f)
		closeFn = func() { _ = f.Close() }
	}

	opts := slog.HandlerOptions{Level: level, AddSource: debug}
	var h slog.Handler = slog.NewJSONHandler(w, &opts)
	if debug {
		h = slog.NewTextHandler(w, &opts)
	}
	slog.SetDefault(slog.New(h))
	return closeFn, nil
}
