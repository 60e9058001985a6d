// Package main 提供 lobby 命令行入口
//
//	lobby host                 生成会话码并托管
//	lobby join -code XY7K2M    扫描并连接主机
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-lobby"
	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/pkg/lib/log"
	"github.com/dep2p/go-lobby/pkg/types"
)

var logger = log.Logger("lobby/cmd")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		return err
	}

	setupLogging(opts.logLevel)

	cfg, err := buildConfig(opts)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📦 %s\n", lobby.VersionInfo())

	l, err := lobby.New(
		lobby.WithConfig(cfg),
		lobby.WithVerboseFx(opts.verbose),
		lobby.WithStateObserver(func(from, to types.SessionState) {
			fmt.Printf("状态: %s → %s\n", from, to)
		}),
	)
	if err != nil {
		return err
	}
	if err := l.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Stop(stopCtx); err != nil {
			logger.Warn("关闭失败", "error", err)
		}
	}()

	if srv := serveMetrics(cfg); srv != nil {
		defer func() { _ = srv.Close() }()
	}

	switch opts.command {
	case cmdHost:
		sessionCode, err := l.Host()
		if err != nil {
			return fmt.Errorf("托管失败: %w", err)
		}
		status := l.Status()
		fmt.Printf("会话码: %s  (%s:%d)\n", sessionCode, status.HostAddress, status.HostPort)
		fmt.Println("等待玩家加入，按 Ctrl+C 退出")
	case cmdJoin:
		if err := l.Join(opts.code); err != nil {
			return fmt.Errorf("加入失败: %w", err)
		}
		fmt.Printf("正在扫描会话 %s ...\n", opts.code)
	}

	return loop(ctx, l, opts)
}

// loop 消费者循环：按 tick 排空回调，直到信号或会话结束
func loop(ctx context.Context, l *lobby.Lobby, opts *cliOptions) error {
	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()

	retries := opts.retries
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n正在退出...")
			return nil
		case <-ticker.C:
		}

		l.Tick()

		status := l.Status()
		switch status.State {
		case types.StateTimedOut:
			if retries == 0 {
				return errors.New("扫描超时，未找到会话")
			}
			retries--
			fmt.Printf("扫描超时，重试（剩余 %d 次）\n", retries)
			if err := l.Retry(); err != nil {
				return err
			}
		case types.StateError:
			return fmt.Errorf("游戏传输失败: %s", status.Reason)
		}
	}
}

// setupLogging 按环境变量和 -log 参数配置日志
func setupLogging(level string) {
	cfg := log.ConfigFromEnv()
	if level != "" {
		log.ParseLevelConfig(cfg, level)
	}
	log.Setup(os.Stderr, cfg)
}

// serveMetrics 启动 Prometheus 指标 HTTP 服务
func serveMetrics(cfg *config.Config) *http.Server {
	if !cfg.Metrics.Enabled || cfg.Metrics.ListenAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务退出", "error", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", cfg.Metrics.ListenAddr)
	return srv
}
