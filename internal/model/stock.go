// Package model 定义行情快照表、K 线、入选结果等数据结构。
package model

// Quote 快照表单行：代码、名称 + 各数值列（均为防御式解析后的 Num）。
type Quote struct {
	Code         string
	Name         string
	Price        Num
	ChangePct    Num // 涨跌幅(%)
	Volume       Num // 成交量(手)
	Amount       Num // 成交额(元)
	VolumeRatio  Num
	TurnoverRate Num // 换手率(%)
	MarketCap    Num // 总市值(元)

	// MarketValueYi 由市值阶段派生：总市值 / 1e8，单位亿元；该阶段之前无效。
	MarketValueYi Num
}

// Field 按列名取数值；非数值列返回无效 Num。
func (q *Quote) Field(c Column) Num {
	switch c {
	case ColPrice:
		return q.Price
	case ColChangePct:
		return q.ChangePct
	case ColVolume:
		return q.Volume
	case ColAmount:
		return q.Amount
	case ColVolumeRatio:
		return q.VolumeRatio
	case ColTurnoverRate:
		return q.TurnoverRate
	case ColMarketCap:
		return q.MarketCap
	case ColMarketValueYi:
		return q.MarketValueYi
	default:
		return Num{}
	}
}

// Candidate 入选结果：快照行 + 派生市值/换手 + 最新 MA5/10/20。
type Candidate struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePct     float64 `json:"pct_chg"`
	VolumeRatio   float64 `json:"volume_ratio,omitempty"`
	TurnoverRate  float64 `json:"turnover_rate"`
	MarketValueYi float64 `json:"total_mv"`
	MA5           float64 `json:"ma5"`
	MA10          float64 `json:"ma10"`
	MA20          float64 `json:"ma20"`
}

// NewCandidate 由通过表过滤的行构造入选结果，均线由调用方填入。
func NewCandidate(q *Quote) Candidate {
	return Candidate{
		Code:          q.Code,
		Name:          q.Name,
		Price:         q.Price.Or(0),
		ChangePct:     q.ChangePct.Or(0),
		VolumeRatio:   q.VolumeRatio.Or(0),
		TurnoverRate:  q.TurnoverRate.Or(0),
		MarketValueYi: q.MarketValueYi.Or(0),
	}
}

// KLine 单日 K：日期、开收、成交量。
type KLine struct {
	Date   string
	Open   float64
	Close  float64
	Volume int64
}
