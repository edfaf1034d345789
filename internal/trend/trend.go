// Package trend 计算日线简单均线并判断多头排列（MA5 > MA10 > MA20）。
package trend

import (
	"context"
	"math"

	"stockLeader/internal/model"
	"stockLeader/internal/trace"
)

const (
	shortPeriod = 5
	midPeriod   = 10
	longPeriod  = 20
	// MinBars 有效收盘价不足该数量时不做判断。
	MinBars = longPeriod
	// DefaultBars 单次请求的日 K 条数，留足停牌与新股的缺口。
	DefaultBars = 60
)

// SMA 简单移动平均，输出与输入等长，预热期为 NaN。
func SMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(p)
	}
	return out
}

// Closes 取有效收盘价（有限且为正），按原顺序。
func Closes(klines []model.KLine) []float64 {
	out := make([]float64, 0, len(klines))
	for i := range klines {
		c := klines[i].Close
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Alignment 最新一根 K 的三条均线及是否多头排列。
type Alignment struct {
	MA5     float64
	MA10    float64
	MA20    float64
	Bullish bool
}

func last(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return x[len(x)-1]
}

// Evaluate 对 K 线序列判断多头排列；有效收盘价少于 MinBars 或任一均线缺失时 Bullish 为 false。
func Evaluate(klines []model.KLine) Alignment {
	closes := Closes(klines)
	if len(closes) < MinBars {
		return Alignment{}
	}
	a := Alignment{
		MA5:  last(SMA(closes, shortPeriod)),
		MA10: last(SMA(closes, midPeriod)),
		MA20: last(SMA(closes, longPeriod)),
	}
	if math.IsNaN(a.MA5) || math.IsNaN(a.MA10) || math.IsNaN(a.MA20) {
		return Alignment{}
	}
	a.Bullish = a.MA5 > a.MA10 && a.MA10 > a.MA20
	return a
}

// HistorySource 按代码拉取最近 count 根日 K。
type HistorySource interface {
	GetHisKlines(ctx context.Context, code string, count int) ([]model.KLine, error)
}

// Checker 逐只拉取历史并判断均线；拉取失败视为不满足，错误只记日志。
type Checker struct {
	src  HistorySource
	bars int
}

func NewChecker(src HistorySource, bars int) *Checker {
	if src == nil {
		panic("trend: history source must not be nil")
	}
	if bars < MinBars {
		bars = DefaultBars
	}
	return &Checker{src: src, bars: bars}
}

// Check 返回最新均线与是否多头排列。
// 数据源 panic 同样按不满足处理，不中断整轮筛选。
func (c *Checker) Check(ctx context.Context, code string) (a Alignment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			trace.Warn(ctx, "trend: panic code=%s: %v", code, r)
			a, ok = Alignment{}, false
		}
	}()
	klines, err := c.src.GetHisKlines(ctx, code, c.bars)
	if err != nil {
		trace.Warn(ctx, "trend: GetHisKlines code=%s err=%v", code, err)
		return Alignment{}, false
	}
	if n := len(Closes(klines)); n < MinBars {
		trace.Debug(ctx, "trend: klines %d<%d code=%s", n, MinBars, code)
		return Alignment{}, false
	}
	a = Evaluate(klines)
	return a, a.Bullish
}
