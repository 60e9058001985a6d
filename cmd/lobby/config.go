package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dep2p/go-lobby/config"
	"github.com/dep2p/go-lobby/internal/lobby/code"
)

// 子命令
const (
	cmdHost = "host"
	cmdJoin = "join"
)

// defaultTick 消费者循环间隔
const defaultTick = 50 * time.Millisecond

// cliOptions 命令行参数
type cliOptions struct {
	command string

	configFile    string
	gameplayPort  int
	discoveryPort int
	tick          time.Duration
	metricsAddr   string
	logLevel      string
	verbose       bool

	// join
	code    string
	retries int
}

// parseArgs 解析子命令和参数
//
//	lobby host [flags]
//	lobby join -code XY7K2M [flags]
func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	if len(args) == 0 {
		return nil, errors.New("缺少子命令: host 或 join")
	}

	opts := &cliOptions{command: args[0]}
	if opts.command != cmdHost && opts.command != cmdJoin {
		return nil, fmt.Errorf("未知子命令: %q", opts.command)
	}

	fs := flag.NewFlagSet("lobby "+opts.command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ─────────────────────────────────────────────────────────────────────
	// 公共参数
	// ─────────────────────────────────────────────────────────────────────
	fs.StringVar(&opts.configFile, "config", "", "配置文件路径（.json / .yaml）")
	fs.IntVar(&opts.gameplayPort, "port", 0, "游戏端口（0 = 使用配置）")
	fs.IntVar(&opts.discoveryPort, "discovery-port", 0, "发现端口（0 = 使用配置）")
	fs.DurationVar(&opts.tick, "tick", defaultTick, "消费者循环间隔")
	fs.StringVar(&opts.metricsAddr, "metrics", "", "Prometheus 指标监听地址，例如 127.0.0.1:9102")
	fs.StringVar(&opts.logLevel, "log", "", "日志级别，例如 debug 或 info,lobby/scanner=debug")
	fs.BoolVar(&opts.verbose, "v", false, "输出依赖注入日志")

	// ─────────────────────────────────────────────────────────────────────
	// join 参数
	// ─────────────────────────────────────────────────────────────────────
	if opts.command == cmdJoin {
		fs.StringVar(&opts.code, "code", "", "会话码")
		fs.IntVar(&opts.retries, "retries", 0, "扫描超时后的重试次数")
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if opts.tick <= 0 {
		return nil, errors.New("-tick 必须为正数")
	}
	if opts.command == cmdJoin {
		opts.code = code.Normalize(opts.code)
		if !code.Validate(opts.code) {
			return nil, fmt.Errorf("无效的会话码: %q", opts.code)
		}
		if opts.retries < 0 {
			return nil, errors.New("-retries 不能为负数")
		}
	}
	return opts, nil
}

// buildConfig 构建统一配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（LOBBY_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig(opts *cliOptions) (*config.Config, error) {
	cfg := config.NewConfig()
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	config.ApplyEnvOverrides(cfg)

	if opts.gameplayPort != 0 {
		if opts.gameplayPort < 0 || opts.gameplayPort > 65535 {
			return nil, fmt.Errorf("-port 超出范围: %d", opts.gameplayPort)
		}
		cfg.Session.GameplayPort = uint16(opts.gameplayPort)
	}
	if opts.discoveryPort != 0 {
		cfg.Discovery.Port = opts.discoveryPort
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = opts.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
