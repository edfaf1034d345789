package model

import "testing"

func TestParseNum(t *testing.T) {
	cases := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"3.25", 3.25, true},
		{" -1.5 ", -1.5, true},
		{"4.8%", 4.8, true},
		{"12,345.6", 12345.6, true},
		{"0", 0, true},
		{"-", 0, false},
		{"--", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"+Inf", 0, false},
		{"abc", 0, false},
		{"null", 0, false},
	}
	for _, c := range cases {
		got := ParseNum(c.in)
		if got.Valid != c.valid {
			t.Fatalf("ParseNum(%q) valid=%v, want %v", c.in, got.Valid, c.valid)
		}
		if c.valid && got.V != c.want {
			t.Fatalf("ParseNum(%q)=%v, want %v", c.in, got.V, c.want)
		}
	}
}

func TestNumOr(t *testing.T) {
	if (Num{}).Or(7) != 7 {
		t.Fatal("invalid Num should fall back")
	}
	if (Num{V: 2, Valid: true}).Or(7) != 2 {
		t.Fatal("valid Num should keep value")
	}
}

func TestTableWithKeepsColumns(t *testing.T) {
	tbl := NewTable(ColCode, ColChangePct)
	tbl.Rows = []Quote{{Code: "600000"}, {Code: "000001"}}

	out := tbl.With(tbl.Rows[:1])
	if out.Len() != 1 || tbl.Len() != 2 {
		t.Fatalf("len mismatch: out=%d in=%d", out.Len(), tbl.Len())
	}
	if !out.Has(ColChangePct) || out.Has(ColTurnoverRate) {
		t.Fatalf("columns not carried: %v", out.Columns())
	}

	out.AddColumn(ColMarketValueYi)
	if tbl.Has(ColMarketValueYi) {
		t.Fatal("AddColumn on derived table leaked into source")
	}
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	if tbl.Len() != 0 || tbl.Has(ColCode) || tbl.Columns() != nil {
		t.Fatal("nil table should behave as empty")
	}
	if tbl.Empty().Len() != 0 {
		t.Fatal("Empty on nil table")
	}
}

func TestQuoteField(t *testing.T) {
	q := Quote{
		ChangePct:     Num{V: 3, Valid: true},
		MarketValueYi: Num{V: 120, Valid: true},
	}
	if v := q.Field(ColChangePct); !v.Valid || v.V != 3 {
		t.Fatalf("pct_chg field: %+v", v)
	}
	if v := q.Field(ColMarketValueYi); !v.Valid || v.V != 120 {
		t.Fatalf("mv_yi field: %+v", v)
	}
	if (&Quote{}).Field(ColMarketValueYi).Valid {
		t.Fatal("mv_yi is invalid until derived")
	}
	if q.Field(ColTurnoverRate).Valid {
		t.Fatal("unset turnover should be invalid")
	}
	if q.Field(ColName).Valid {
		t.Fatal("text column has no numeric value")
	}
}
