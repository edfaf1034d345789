// Package screen 串联一次完整选股：快照 → 量比 → 涨幅 → 市值 → 换手 → 均线多头。
package screen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stockLeader/internal/config"
	"stockLeader/internal/filter"
	"stockLeader/internal/model"
	"stockLeader/internal/trace"
	"stockLeader/internal/trend"
)

const (
	trendStageName   = "ma_trend"
	progressInterval = 50
)

// Provider 行情数据源：全市场快照 + 单只历史 K 线。
type Provider interface {
	Snapshot(ctx context.Context) (*model.Table, error)
	trend.HistorySource
}

// StageCount 单个阶段的进出数量；Skipped 表示因缺列未执行。
type StageCount struct {
	Stage   string `json:"stage"`
	In      int    `json:"in"`
	Out     int    `json:"out"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Result 一次选股结果，Selected 保持进入均线阶段时的顺序（涨幅降序）。
type Result struct {
	TraceID  string            `json:"trace_id"`
	At       time.Time         `json:"at"`
	Snapshot int               `json:"snapshot"`
	Stages   []StageCount      `json:"stages"`
	Selected []model.Candidate `json:"selected"`
}

type Pipeline struct {
	provider Provider
	stages   []filter.Named
	checker  *trend.Checker
	now      func() time.Time
}

func New(p Provider, cfg config.Screen) *Pipeline {
	if p == nil {
		panic("screen: provider must not be nil")
	}
	return &Pipeline{
		provider: p,
		stages: filter.Stages(filter.Thresholds{
			VolumeRatioMin: cfg.VolumeRatioMin,
			ChangePctMin:   cfg.ChangePctMin,
			MarketValueMin: cfg.MarketValueMin,
			MarketValueMax: cfg.MarketValueMax,
			TurnoverMin:    cfg.TurnoverMin,
			TurnoverMax:    cfg.TurnoverMax,
		}),
		checker: trend.NewChecker(p, cfg.HistoryBars),
		now:     time.Now,
	}
}

// Run 执行一次筛选。快照失败时返回空结果与 error；之后各阶段的失败只影响单只股票。
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{TraceID: trace.TraceID(ctx), At: p.now(), Selected: []model.Candidate{}}
	trace.Log(ctx, "screen: start")

	snap, err := p.provider.Snapshot(ctx)
	if err != nil {
		trace.Warn(ctx, "screen: snapshot err=%v", err)
		return res, fmt.Errorf("snapshot: %w", err)
	}
	res.Snapshot = snap.Len()
	trace.Log(ctx, "screen: 获取到 %d 只股票数据", res.Snapshot)

	tbl := snap
	for _, st := range p.stages {
		if tbl.Len() == 0 {
			trace.Log(ctx, "screen: 表已为空，跳过后续阶段")
			return res, nil
		}
		in := tbl.Len()
		out, skipped := st.Apply(tbl)
		res.Stages = append(res.Stages, StageCount{Stage: st.Name, In: in, Out: out.Len(), Skipped: skipped})
		if skipped {
			trace.Log(ctx, "screen: 数据不含 %s 列，阶段 %s 按缺列处理 %d -> %d", st.Column, st.Name, in, out.Len())
		} else {
			trace.With(ctx, zap.String("stage", st.Name), zap.Int("in", in), zap.Int("out", out.Len())).Info("screen: stage done")
		}
		tbl = out
	}
	if tbl.Len() == 0 {
		return res, nil
	}

	res.Selected = p.checkTrend(ctx, tbl)
	res.Stages = append(res.Stages, StageCount{Stage: trendStageName, In: tbl.Len(), Out: len(res.Selected)})
	trace.Log(ctx, "screen: 符合均线多头排列的股票数量: %d", len(res.Selected))
	return res, nil
}

// checkTrend 按表顺序逐只检查均线，每 progressInterval 只打一次进度。
func (p *Pipeline) checkTrend(ctx context.Context, tbl *model.Table) []model.Candidate {
	selected := make([]model.Candidate, 0)
	total := tbl.Len()
	for i := range tbl.Rows {
		if (i+1)%progressInterval == 0 {
			trace.Log(ctx, "screen: 已检查 %d/%d 只股票的均线趋势", i+1, total)
		}
		q := &tbl.Rows[i]
		a, ok := p.checker.Check(ctx, q.Code)
		if !ok {
			continue
		}
		c := model.NewCandidate(q)
		c.MA5, c.MA10, c.MA20 = a.MA5, a.MA10, a.MA20
		selected = append(selected, c)
	}
	return selected
}
