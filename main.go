// Package main 是 A 股龙头股筛选程序的入口：拉取全市场快照、逐级筛选、均线确认，
// 给出仓位与风控建议，可选邮件推送。watch 子命令在交易时段内按半小时周期执行。
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stockLeader/internal/api"
	"stockLeader/internal/config"
	"stockLeader/internal/mail"
	"stockLeader/internal/report"
	"stockLeader/internal/schedule"
	"stockLeader/internal/screen"
	"stockLeader/internal/sizing"
	"stockLeader/internal/trace"
)

// 单轮运行超时
const runTimeout = 10 * time.Minute

// 日志时间格式
const timeFormatNextRun = "2006-01-02 15:04"

var (
	version     = "0.1.0"
	configPath  string
	capitalFlag string
	jsonOut     bool
	noMail      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stockLeader",
		Short: "A 股龙头股筛选：涨幅、市值、换手、均线多头",
		Long: `stockLeader 拉取东方财富全市场快照，依次按涨幅>2%、市值 50~300 亿、
换手 3%~10% 筛选，再逐只确认 MA5>MA10>MA20，并给出仓位与风控建议。`,
		SilenceUsage: true,
		RunE:         runScreen,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认 $CONFIG_PATH 或 config.yaml)")
	rootCmd.PersistentFlags().StringVar(&capitalFlag, "capital", "", "资金量（万元）；不填则交互输入")
	rootCmd.PersistentFlags().BoolVar(&noMail, "no-mail", false, "不发送邮件")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "以 JSON 输出结果")

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockLeader version %s\n", version)
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "常驻运行：周一至周五 9:15~15:00 每半小时筛选一次",
		RunE:  runWatch,
	}
}

// setup 加载配置、初始化日志并构造行情客户端。
func setup() (*config.Config, *api.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := trace.Init(trace.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return nil, nil, err
	}
	client := api.NewClient(api.Options{
		RequestGap:    time.Duration(cfg.API.DelayMS) * time.Millisecond,
		RequestJitter: time.Duration(cfg.API.JitterMS) * time.Millisecond,
		MaxConcurrent: cfg.API.MaxConcurrent,
	})
	return cfg, client, nil
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	defer trace.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()
	ctx = trace.WithTraceID(ctx, trace.NewTraceID())

	summary, err := runOnce(ctx, cfg, client)
	if err != nil {
		_ = report.WriteText(cmd.OutOrStdout(), summary)
		return err
	}
	if len(summary.Result.Selected) > 0 {
		capital, ok, err := resolveCapital(cfg, !jsonOut, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if ok {
			p := sizing.Plan(capital)
			summary.Position = &p
		}
	}
	if jsonOut {
		err = report.WriteJSON(cmd.OutOrStdout(), summary)
	} else {
		err = report.WriteText(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return err
	}
	if !noMail {
		mail.MustSendReport(ctx, &cfg.SMTP, summary)
	}
	return nil
}

// runOnce 执行一轮筛选并组装输出（不含仓位）。
func runOnce(ctx context.Context, cfg *config.Config, client *api.Client) (report.Summary, error) {
	res, err := screen.New(client, cfg.Screen).Run(ctx)
	summary := report.Summary{
		Result: res,
		Risk:   sizing.NewRisk(cfg.Risk.StopLossPct, cfg.Risk.TakeProfitPct),
		TopN:   cfg.Screen.TopN,
	}
	if err != nil {
		trace.Warn(ctx, "main: screen err=%v", err)
	}
	return summary, err
}

// resolveCapital 资金量优先取 --capital，其次配置，最后在允许时交互输入；ok=false 表示不计算仓位。
func resolveCapital(cfg *config.Config, interactive bool, in io.Reader, out io.Writer) (decimal.Decimal, bool, error) {
	if capitalFlag != "" {
		d, err := report.ParseCapital(capitalFlag)
		return d, err == nil, err
	}
	if cfg.Capital > 0 {
		d, err := report.ParseCapital(strconv.FormatFloat(cfg.Capital, 'f', -1, 64))
		return d, err == nil, err
	}
	if !interactive {
		return decimal.Zero, false, nil
	}
	d, err := report.PromptCapital(in, out)
	return d, err == nil, err
}

// runWatch 常驻进程：每个交易时段执行一次，单轮失败只记日志。
func runWatch(cmd *cobra.Command, args []string) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	defer trace.Sync()

	ctx := trace.WithTraceID(cmd.Context(), trace.NewTraceID())
	trace.Log(ctx, "main: 调度模式启动，每半小时 9:15~15:00 周一至周五")
	for {
		next := schedule.Next(time.Now())
		d := time.Until(next)
		trace.Log(ctx, "main: 下次执行 %s (约 %s 后)", next.Format(timeFormatNextRun), d.Round(time.Second))
		select {
		case <-ctx.Done():
			trace.Log(ctx, "main: 调度退出")
			return nil
		case <-time.After(d):
		}

		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		runCtx = trace.WithTraceID(runCtx, trace.NewTraceID())
		summary, err := runOnce(runCtx, cfg, client)
		if err == nil {
			if capital, ok, cerr := resolveCapital(cfg, false, nil, nil); cerr == nil && ok {
				p := sizing.Plan(capital)
				summary.Position = &p
			}
			_ = report.WriteText(cmd.OutOrStdout(), summary)
			if !noMail {
				mail.MustSendReport(runCtx, &cfg.SMTP, summary)
			}
		}
		cancel()
	}
}
