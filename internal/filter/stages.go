// Package filter 定义快照表上的筛选阶段（Stage）：量比、涨幅、市值、换手。
// 每个阶段只读输入表，返回新表；该列数值无效的行被剔除。
package filter

import (
	"sort"

	"stockLeader/internal/model"
)

// 市值原始单位为元，换算为亿元
const yuanPerYi = 1e8

// Stage 单个筛选阶段。
type Stage func(*model.Table) *model.Table

// Named 带名称的阶段，供流水线记录各阶段进出数量。
type Named struct {
	Name  string
	Stage Stage
	// Column 阶段依赖的列；缺列时 OnMissing 决定放行还是清空。
	Column    model.Column
	OnMissing Missing
}

// Missing 缺列处理方式
type Missing int

const (
	// MissingPass 缺列时原样放行。
	MissingPass Missing = iota
	// MissingEmpty 缺列时返回空表。
	MissingEmpty
)

// Apply 先按 OnMissing 处理缺列，再执行阶段。
func (n Named) Apply(t *model.Table) (out *model.Table, skipped bool) {
	if n.Column != "" && !t.Has(n.Column) {
		if n.OnMissing == MissingEmpty {
			return t.Empty(), true
		}
		return t, true
	}
	return n.Stage(t), false
}

// keep 按谓词保留行，该列无效的行直接丢弃。
func keep(t *model.Table, col model.Column, pred func(float64) bool) *model.Table {
	rows := make([]model.Quote, 0, t.Len())
	for i := range t.Rows {
		v := t.Rows[i].Field(col)
		if !v.Valid {
			continue
		}
		if pred(v.V) {
			rows = append(rows, t.Rows[i])
		}
	}
	return t.With(rows)
}

// VolumeRatioMin 量比 >= min；min<=0 时整个阶段放行（默认关闭）。
func VolumeRatioMin(min float64) Stage {
	return func(t *model.Table) *model.Table {
		if min <= 0 {
			return t
		}
		return keep(t, model.ColVolumeRatio, func(v float64) bool { return v >= min })
	}
}

// ChangePctAbove 涨跌幅严格大于 min，结果按涨幅降序（同涨幅保持原序）。
func ChangePctAbove(min float64) Stage {
	return func(t *model.Table) *model.Table {
		out := keep(t, model.ColChangePct, func(v float64) bool { return v > min })
		sort.SliceStable(out.Rows, func(i, j int) bool {
			return out.Rows[i].ChangePct.V > out.Rows[j].ChangePct.V
		})
		return out
	}
}

// MarketValueRange 派生亿元市值列，保留 min <= 市值 <= max。
func MarketValueRange(min, max float64) Stage {
	return func(t *model.Table) *model.Table {
		rows := make([]model.Quote, 0, t.Len())
		for i := range t.Rows {
			mc := t.Rows[i].MarketCap
			if !mc.Valid {
				continue
			}
			q := t.Rows[i]
			yi := mc.V / yuanPerYi
			q.MarketValueYi = model.Num{V: yi, Valid: true}
			if yi >= min && yi <= max {
				rows = append(rows, q)
			}
		}
		out := t.With(rows)
		out.AddColumn(model.ColMarketValueYi)
		return out
	}
}

// TurnoverRateRange 换手率 min <= rate <= max。
func TurnoverRateRange(min, max float64) Stage {
	return func(t *model.Table) *model.Table {
		return keep(t, model.ColTurnoverRate, func(v float64) bool { return v >= min && v <= max })
	}
}

// Thresholds 表阶段阈值。
type Thresholds struct {
	VolumeRatioMin float64
	ChangePctMin   float64
	MarketValueMin float64
	MarketValueMax float64
	TurnoverMin    float64
	TurnoverMax    float64
}

// Stages 按固定顺序返回表阶段：量比 → 涨幅 → 市值 → 换手。
func Stages(th Thresholds) []Named {
	return []Named{
		{Name: "volume_ratio", Stage: VolumeRatioMin(th.VolumeRatioMin), Column: model.ColVolumeRatio, OnMissing: MissingPass},
		{Name: "pct_chg", Stage: ChangePctAbove(th.ChangePctMin), Column: model.ColChangePct, OnMissing: MissingEmpty},
		{Name: "total_mv", Stage: MarketValueRange(th.MarketValueMin, th.MarketValueMax), Column: model.ColMarketCap, OnMissing: MissingEmpty},
		{Name: "turnover_rate", Stage: TurnoverRateRange(th.TurnoverMin, th.TurnoverMax), Column: model.ColTurnoverRate, OnMissing: MissingEmpty},
	}
}
