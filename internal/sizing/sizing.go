// Package sizing 给出固定比例的仓位计划与止损止盈阈值，金额用 decimal 计算，不受浮点误差影响。
package sizing

import (
	"github.com/shopspring/decimal"
)

// 仓位比例：首次建仓 10%，加仓 10%，单票上限 30%
var (
	InitialFraction = decimal.RequireFromString("0.10")
	AddOnFraction   = decimal.RequireFromString("0.10")
	MaxFraction     = decimal.RequireFromString("0.30")
)

// 默认风控：止损 -5%，首次止盈 +15%
var (
	DefaultStopLossPct   = decimal.NewFromInt(-5)
	DefaultTakeProfitPct = decimal.NewFromInt(15)
)

var hundred = decimal.NewFromInt(100)

// Tranche 一档仓位：占总资金比例与对应金额。
type Tranche struct {
	Fraction decimal.Decimal `json:"fraction"`
	Amount   decimal.Decimal `json:"amount"`
}

// Percent 比例的百分数形式，如 0.10 -> 10。
func (t Tranche) Percent() decimal.Decimal {
	return t.Fraction.Mul(hundred)
}

func tranche(capital, fraction decimal.Decimal) Tranche {
	return Tranche{Fraction: fraction, Amount: capital.Mul(fraction)}
}

// Position 仓位计划。
type Position struct {
	Capital decimal.Decimal `json:"capital"`
	Initial Tranche         `json:"initial"`
	AddOn   Tranche         `json:"add_on"`
	Max     Tranche         `json:"max"`
}

// Plan 按固定比例切分总资金（单位由调用方约定，原样保留）。
func Plan(capital decimal.Decimal) Position {
	return Position{
		Capital: capital,
		Initial: tranche(capital, InitialFraction),
		AddOn:   tranche(capital, AddOnFraction),
		Max:     tranche(capital, MaxFraction),
	}
}

// Risk 止损/止盈百分比。
type Risk struct {
	StopLossPct   decimal.Decimal `json:"stop_loss_pct"`
	TakeProfitPct decimal.Decimal `json:"take_profit_pct"`
}

func DefaultRisk() Risk {
	return Risk{StopLossPct: DefaultStopLossPct, TakeProfitPct: DefaultTakeProfitPct}
}

func NewRisk(stopLossPct, takeProfitPct float64) Risk {
	return Risk{
		StopLossPct:   decimal.NewFromFloat(stopLossPct),
		TakeProfitPct: decimal.NewFromFloat(takeProfitPct),
	}
}

// StopPrice 以 entry 为成本价的止损价。
func (r Risk) StopPrice(entry decimal.Decimal) decimal.Decimal {
	return entry.Mul(hundred.Add(r.StopLossPct)).Div(hundred)
}

// TargetPrice 以 entry 为成本价的首次止盈价。
func (r Risk) TargetPrice(entry decimal.Decimal) decimal.Decimal {
	return entry.Mul(hundred.Add(r.TakeProfitPct)).Div(hundred)
}
