package model

import "sort"

// Column 快照表列名，沿用原始数据列的英文别名。
type Column string

const (
	ColCode          Column = "ts_code"
	ColName          Column = "name"
	ColPrice         Column = "price"
	ColChangePct     Column = "pct_chg"
	ColVolume        Column = "volume"
	ColAmount        Column = "amount"
	ColVolumeRatio   Column = "volume_ratio"
	ColTurnoverRate  Column = "turnover_rate"
	ColMarketCap     Column = "total_mv"
	ColMarketValueYi Column = "mv_yi"
)

// Table 行情快照表：有序行 + 数据源实际提供的列集合。
// 各筛选阶段只读输入表，返回新表。
type Table struct {
	columns map[Column]struct{}
	Rows    []Quote
}

func NewTable(cols ...Column) *Table {
	t := &Table{columns: make(map[Column]struct{}, len(cols))}
	for _, c := range cols {
		t.columns[c] = struct{}{}
	}
	return t
}

// Has 报告数据源是否提供了该列。
func (t *Table) Has(c Column) bool {
	if t == nil {
		return false
	}
	_, ok := t.columns[c]
	return ok
}

// AddColumn 标记列存在。
func (t *Table) AddColumn(c Column) {
	if t.columns == nil {
		t.columns = make(map[Column]struct{})
	}
	t.columns[c] = struct{}{}
}

// Columns 返回按名称排序的列集合。
func (t *Table) Columns() []Column {
	if t == nil {
		return nil
	}
	out := make([]Column, 0, len(t.columns))
	for c := range t.columns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// With 返回列集合相同、行为 rows 的新表。
func (t *Table) With(rows []Quote) *Table {
	out := NewTable()
	if t != nil {
		for c := range t.columns {
			out.columns[c] = struct{}{}
		}
	}
	out.Rows = rows
	return out
}

// Empty 返回列集合相同的空表。
func (t *Table) Empty() *Table {
	return t.With(nil)
}
