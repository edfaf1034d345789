// Package config 加载选股阈值、接口节流、日志与 SMTP 配置。
// 顺序：默认值 → YAML 文件 → .env → 环境变量；命令行参数由调用方最后覆盖。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 配置路径与环境变量名
const (
	defaultConfigPath = "config.yaml"
	envConfigPath     = "CONFIG_PATH"
	envFile           = ".env"

	envChangePctMin   = "STOCKLEADER_CHANGE_PCT_MIN"
	envVolumeRatioMin = "STOCKLEADER_VOLUME_RATIO_MIN"
	envMarketValueMin = "STOCKLEADER_MV_MIN"
	envMarketValueMax = "STOCKLEADER_MV_MAX"
	envTurnoverMin    = "STOCKLEADER_TURNOVER_MIN"
	envTurnoverMax    = "STOCKLEADER_TURNOVER_MAX"
	envHistoryBars    = "STOCKLEADER_HISTORY_BARS"
	envCapital        = "STOCKLEADER_CAPITAL"
	envAPIDelayMS     = "STOCKLEADER_API_DELAY_MS"
	envAPIJitterMS    = "STOCKLEADER_API_JITTER_MS"
	envAPIMaxConc     = "STOCKLEADER_API_MAX_CONCURRENT"
	envLogLevel       = "STOCKLEADER_LOG_LEVEL"
	envLogFile        = "STOCKLEADER_LOG_FILE"

	envSMTPServer   = "SMTP_SERVER"
	envSMTPPort     = "SMTP_PORT"
	envSMTPUser     = "SMTP_USER"
	envSMTPPassword = "SMTP_PASSWORD"
	envSMTPAuthCode = "SMTP_AUTH_CODE"
	envSMTPFrom     = "SMTP_FROM"
	envSMTPTo       = "SMTP_TO"
)

// 默认选股阈值
const (
	DefaultChangePctMin   = 2.0
	DefaultMarketValueMin = 50
	DefaultMarketValueMax = 300
	DefaultTurnoverMin    = 3
	DefaultTurnoverMax    = 10
	DefaultHistoryBars    = 60
	DefaultTopN           = 10
	DefaultStopLossPct    = -5.0
	DefaultTakeProfitPct  = 15.0
	minHistoryBars        = 20
)

// 默认接口节流
const (
	defaultAPIDelayMS    = 200
	defaultAPIJitterMS   = 150
	defaultMaxConcurrent = 4
	maxConcurrentCap     = 20
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Screen  Screen  `yaml:"screen"`
	Risk    Risk    `yaml:"risk"`
	API     API     `yaml:"api"`
	Log     Log     `yaml:"log"`
	SMTP    SMTP    `yaml:"smtp"`
	Capital float64 `yaml:"capital"` // 万元；0 表示运行时询问
}

// Screen 选股阈值。VolumeRatioMin<=0 时量比阶段直接放行。
type Screen struct {
	VolumeRatioMin float64 `yaml:"volume_ratio_min"`
	ChangePctMin   float64 `yaml:"change_pct_min"`
	MarketValueMin float64 `yaml:"market_value_min"` // 亿元
	MarketValueMax float64 `yaml:"market_value_max"`
	TurnoverMin    float64 `yaml:"turnover_min"` // %
	TurnoverMax    float64 `yaml:"turnover_max"`
	HistoryBars    int     `yaml:"history_bars"`
	TopN           int     `yaml:"top_n"`
}

type Risk struct {
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
}

type API struct {
	DelayMS       int `yaml:"delay_ms"`
	JitterMS      int `yaml:"jitter_ms"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type SMTP struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

func Default() *Config {
	return &Config{
		Screen: Screen{
			ChangePctMin:   DefaultChangePctMin,
			MarketValueMin: DefaultMarketValueMin,
			MarketValueMax: DefaultMarketValueMax,
			TurnoverMin:    DefaultTurnoverMin,
			TurnoverMax:    DefaultTurnoverMax,
			HistoryBars:    DefaultHistoryBars,
			TopN:           DefaultTopN,
		},
		Risk: Risk{StopLossPct: DefaultStopLossPct, TakeProfitPct: DefaultTakeProfitPct},
		API: API{
			DelayMS:       defaultAPIDelayMS,
			JitterMS:      defaultAPIJitterMS,
			MaxConcurrent: defaultMaxConcurrent,
		},
		Log: Log{Level: "info"},
	}
}

// Load 读取 path（空则取 CONFIG_PATH，再默认 config.yaml）。文件不存在不算错误，格式错误返回 error。
func Load(path string) (*Config, error) {
	_ = godotenv.Load(envFile)
	cfg := Default()
	explicit := path != ""
	if path == "" {
		path = os.Getenv(envConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	applyEnv(cfg)
	if cfg.SMTP.From == "" && cfg.SMTP.User != "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	if cfg.API.MaxConcurrent > maxConcurrentCap {
		cfg.API.MaxConcurrent = maxConcurrentCap
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envFloat(envChangePctMin, &cfg.Screen.ChangePctMin)
	envFloat(envVolumeRatioMin, &cfg.Screen.VolumeRatioMin)
	envFloat(envMarketValueMin, &cfg.Screen.MarketValueMin)
	envFloat(envMarketValueMax, &cfg.Screen.MarketValueMax)
	envFloat(envTurnoverMin, &cfg.Screen.TurnoverMin)
	envFloat(envTurnoverMax, &cfg.Screen.TurnoverMax)
	envInt(envHistoryBars, &cfg.Screen.HistoryBars)
	envFloat(envCapital, &cfg.Capital)
	envInt(envAPIDelayMS, &cfg.API.DelayMS)
	envInt(envAPIJitterMS, &cfg.API.JitterMS)
	envInt(envAPIMaxConc, &cfg.API.MaxConcurrent)
	envString(envLogLevel, &cfg.Log.Level)
	envString(envLogFile, &cfg.Log.File)

	envString(envSMTPServer, &cfg.SMTP.Server)
	envInt(envSMTPPort, &cfg.SMTP.Port)
	envString(envSMTPUser, &cfg.SMTP.User)
	envString(envSMTPPassword, &cfg.SMTP.Password)
	envString(envSMTPAuthCode, &cfg.SMTP.Password)
	envString(envSMTPFrom, &cfg.SMTP.From)
	envString(envSMTPTo, &cfg.SMTP.To)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate 检查区间与取值范围。
func (c *Config) Validate() error {
	s := c.Screen
	if s.MarketValueMin > s.MarketValueMax {
		return fmt.Errorf("%w: market value range [%v, %v]", ErrInvalid, s.MarketValueMin, s.MarketValueMax)
	}
	if s.TurnoverMin > s.TurnoverMax {
		return fmt.Errorf("%w: turnover range [%v, %v]", ErrInvalid, s.TurnoverMin, s.TurnoverMax)
	}
	if s.HistoryBars < minHistoryBars {
		return fmt.Errorf("%w: history_bars %d < %d", ErrInvalid, s.HistoryBars, minHistoryBars)
	}
	if s.TopN <= 0 {
		return fmt.Errorf("%w: top_n %d", ErrInvalid, s.TopN)
	}
	if c.Capital < 0 {
		return fmt.Errorf("%w: capital %v", ErrInvalid, c.Capital)
	}
	if c.API.DelayMS < 0 || c.API.JitterMS < 0 || c.API.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: api pacing %+v", ErrInvalid, c.API)
	}
	return nil
}

func (s *SMTP) Enabled() bool {
	srv := strings.TrimSpace(s.Server)
	from := strings.TrimSpace(s.From)
	to := strings.TrimSpace(s.To)
	return srv != "" && from != "" && to != ""
}
