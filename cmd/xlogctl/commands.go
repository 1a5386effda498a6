package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogkit/pkg/config/xconf"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/util/xjson"
)

// dateLayout --date 参数格式。
const dateLayout = "2006-01-02"

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createConfigCommand(),
		createPathsCommand(),
		createWriteCommand(),
		createWatchCommand(),
	}
}

func createConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "打印合并默认值后的生效配置",
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			return cmdConfig(cmd.Root().Writer, xlog.Resolve(opts))
		},
	}
}

func createPathsCommand() *cli.Command {
	return &cli.Command{
		Name:  "paths",
		Usage: "打印某一天的普通日志与错误日志路径",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "日期（YYYY-MM-DD），默认今天",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			day := time.Now()
			if s := cmd.String("date"); s != "" {
				parsed, err := time.ParseInLocation(dateLayout, s, time.Local)
				if err != nil {
					return usageErrorf("invalid --date %q, want %s", s, dateLayout)
				}
				day = parsed
			}
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			cfg := xlog.Resolve(opts)
			return cmdPaths(cmd.Root().Writer, day, &cfg)
		},
	}
}

func createWriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "按配置写入一条日志",
		ArgsUsage: "<message...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "日志级别 (debug/info/warn/error/fatal)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "context",
				Usage: "上下文名称",
				Value: "xlogctl",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level, err := xlog.ParseLevel(cmd.String("level"))
			if err != nil {
				return usageErrorf("%v", err)
			}
			message := strings.Join(cmd.Args().Slice(), " ")
			if message == "" {
				return usageErrorf("write requires a message")
			}
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			return cmdWrite(ctx, cmd.Root().ErrWriter, opts, level, cmd.String("context"), message)
		},
	}
}

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "监视配置文件并打印每次重载结果",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "防抖时间",
				Value: xconf.DefaultDebounce,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if path == "" {
				return usageErrorf("watch requires --config")
			}
			return cmdWatch(ctx, cmd.Root().Writer, path,
				xconf.WithSection(cmd.String("section")),
				xconf.WithDebounce(cmd.Duration("debounce")),
			)
		},
	}
}

// loadOptions 读取 --config 指定的配置文件；未指定时返回零值（全部默认）。
func loadOptions(cmd *cli.Command) (xlog.Options, error) {
	path := cmd.String("config")
	if path == "" {
		return xlog.Options{}, nil
	}
	return xconf.Load(path, xconf.WithSection(cmd.String("section")))
}

// configView 生效配置的可打印形式。
type configView struct {
	InstanceID       string `json:"instanceId"`
	LogFileExtension string `json:"logFileExtension"`
	LogsDirectory    string `json:"logsDirectory"`
	MinimumLevel     string `json:"minimumLogLevel"`
	EnableConsole    bool   `json:"enableConsoleLogs"`
}

func cmdConfig(out io.Writer, cfg xlog.Config) error {
	s, err := xjson.PrettyE(configView{
		InstanceID:       cfg.InstanceID,
		LogFileExtension: cfg.LogFileExtension,
		LogsDirectory:    cfg.LogsDirectory,
		MinimumLevel:     cfg.MinimumLevel.String(),
		EnableConsole:    cfg.EnableConsole,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, s)
	return err
}

func cmdPaths(out io.Writer, day time.Time, cfg *xlog.Config) error {
	normal, failure, err := xlog.LogFilePaths(day, cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n%s\n", normal, failure)
	return err
}

// cmdWrite 写入一条日志并等待落盘；写入过程中的内部错误输出到 errOut 并使命令失败。
func cmdWrite(ctx context.Context, errOut io.Writer, opts xlog.Options, level xlog.Level, name, message string) error {
	store := xlog.NewStoreWith(opts)
	w, err := xlog.NewWriter(store, xlog.WithOnError(func(err error) {
		fmt.Fprintf(errOut, "xlog: %v\n", err)
	}))
	if err != nil {
		return err
	}

	xlog.NewLogger(name, w, store).Log(level, message)
	if err := w.Flush(ctx); err != nil {
		_ = w.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return w.Close()
}

func cmdWatch(ctx context.Context, out io.Writer, path string, opts ...xconf.Option) error {
	store := xlog.NewStore()
	w, err := xconf.Watch(path, store, func(_ xlog.Options, err error) {
		if err != nil {
			fmt.Fprintf(out, "reload failed: %v\n", err)
			return
		}
		cfg := store.Get()
		fmt.Fprintf(out, "reloaded: minimumLogLevel=%s logsDirectory=%s\n", cfg.MinimumLevel, cfg.LogsDirectory)
	}, opts...)
	if err != nil {
		return err
	}

	cfg := store.Get()
	fmt.Fprintf(out, "watching %s: minimumLogLevel=%s logsDirectory=%s\n", path, cfg.MinimumLevel, cfg.LogsDirectory)
	w.StartAsync()
	<-ctx.Done()
	return w.Stop()
}
