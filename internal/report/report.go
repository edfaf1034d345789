// Package report 把选股结果、仓位计划与风控阈值输出到控制台（表格或 JSON）。
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"

	"stockLeader/internal/screen"
	"stockLeader/internal/sizing"
)

// 资金输入单位为万元
var yuanPerWan = decimal.NewFromInt(10000)

const (
	noSelectionLine = "今日未筛选出符合条件的龙头股"
	capitalPrompt   = "请输入您的资金量（万元）: "
)

var ErrInvalidCapital = errors.New("report: invalid capital")

// Summary 一次运行的完整输出；Position 为空表示未给出资金量，Risk 为零值时按默认风控输出。
type Summary struct {
	Result   *screen.Result   `json:"result"`
	Position *sizing.Position `json:"position,omitempty"`
	Risk     sizing.Risk      `json:"risk"`
	TopN     int              `json:"-"`
}

// ParseCapital 解析以万元为单位的资金量，返回元；负数与非数字报错。
func ParseCapital(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCapital, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidCapital, s)
	}
	return d.Mul(yuanPerWan), nil
}

// PromptCapital 在 w 上提示并从 r 读一行资金量（万元）。
func PromptCapital(r io.Reader, w io.Writer) (decimal.Decimal, error) {
	fmt.Fprint(w, "\n"+capitalPrompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return decimal.Zero, fmt.Errorf("read capital: %w", err)
	}
	return ParseCapital(line)
}

func wan(d decimal.Decimal) string {
	return d.Div(yuanPerWan).StringFixed(1)
}

// WriteText 输出控制台报告。
func WriteText(w io.Writer, s Summary) error {
	res := s.Result
	if res == nil || len(res.Selected) == 0 {
		_, err := fmt.Fprintln(w, noSelectionLine)
		return err
	}
	top := res.Selected
	if s.TopN > 0 && len(top) > s.TopN {
		top = top[:s.TopN]
	}
	risk := s.Risk
	if risk.StopLossPct.IsZero() && risk.TakeProfitPct.IsZero() {
		risk = sizing.DefaultRisk()
	}
	fmt.Fprintf(w, "\n=== 今日筛选出的龙头股 (共 %d 只，显示前 %d) ===\n", len(res.Selected), len(top))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "代码\t名称\t现价\t涨幅%\t量比\t换手%\t市值(亿)\tMA5\tMA10\tMA20\t止损价\t止盈价")
	for _, c := range top {
		stop, target := priceLevels(risk, c.Price)
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
			c.Code, c.Name, c.Price, c.ChangePct, c.VolumeRatio, c.TurnoverRate, c.MarketValueYi,
			c.MA5, c.MA10, c.MA20, stop, target)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== 筛选过程 ===")
	fmt.Fprintf(w, "快照: %d 只\n", res.Snapshot)
	for _, st := range res.Stages {
		note := ""
		if st.Skipped {
			note = " (缺列)"
		}
		fmt.Fprintf(w, "%-14s %5d -> %-5d%s\n", st.Stage, st.In, st.Out, note)
	}

	if p := s.Position; p != nil {
		fmt.Fprintf(w, "\n=== 仓位管理建议 (总资金: %s万元) ===\n", p.Capital.Div(yuanPerWan).StringFixed(0))
		fmt.Fprintf(w, "首次建仓: %s%% (%s万元)\n", p.Initial.Percent(), wan(p.Initial.Amount))
		fmt.Fprintf(w, "加仓: %s%% (%s万元)\n", p.AddOn.Percent(), wan(p.AddOn.Amount))
		fmt.Fprintf(w, "最大单票仓位: %s%% (%s万元)\n", p.Max.Percent(), wan(p.Max.Amount))
	}

	fmt.Fprintln(w, "\n=== 风控设置 ===")
	fmt.Fprintf(w, "固定止损线: %s%%\n", risk.StopLossPct)
	_, err := fmt.Fprintf(w, "首次止盈位: %s%% (止损价/止盈价按现价计)\n", risk.TakeProfitPct)
	return err
}

// priceLevels 以现价为成本价给出止损价与止盈价；现价缺失时输出 "-"。
func priceLevels(r sizing.Risk, price float64) (stop, target string) {
	if price <= 0 {
		return "-", "-"
	}
	entry := decimal.NewFromFloat(price)
	return r.StopPrice(entry).StringFixed(2), r.TargetPrice(entry).StringFixed(2)
}

// WriteJSON 输出缩进 JSON。
func WriteJSON(w io.Writer, s Summary) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = w.Write(pretty.Pretty(b))
	return err
}
