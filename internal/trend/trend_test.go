package trend

import (
	"context"
	"errors"
	"math"
	"testing"

	"stockLeader/internal/model"
)

// helper: n daily bars starting at base, moving by step each day
func mkBars(base, step float64, n int) []model.KLine {
	out := make([]model.KLine, n)
	for i := 0; i < n; i++ {
		p := base + float64(i)*step
		out[i] = model.KLine{Date: "d", Open: p, Close: p, Volume: 1000}
	}
	return out
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("warmup should be NaN: %v", got)
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got[i+2] != w {
			t.Fatalf("sma[%d]=%v want %v", i+2, got[i+2], w)
		}
	}
	if SMA([]float64{1}, 0) != nil {
		t.Fatal("period 0 should return nil")
	}
}

func TestEvaluateUptrendIsBullish(t *testing.T) {
	a := Evaluate(mkBars(10, 0.1, 30))
	if !a.Bullish {
		t.Fatalf("uptrend should align: %+v", a)
	}
	if !(a.MA5 > a.MA10 && a.MA10 > a.MA20) {
		t.Fatalf("ordering mismatch: %+v", a)
	}
}

func TestEvaluateDowntrendAndFlat(t *testing.T) {
	if Evaluate(mkBars(20, -0.1, 30)).Bullish {
		t.Fatal("downtrend should not align")
	}
	if Evaluate(mkBars(20, 0, 30)).Bullish {
		t.Fatal("flat series has equal averages, not strictly ordered")
	}
}

func TestEvaluateNeedsTwentyValidCloses(t *testing.T) {
	if Evaluate(mkBars(10, 0.1, 19)).Bullish {
		t.Fatal("19 bars must not qualify")
	}
	if !Evaluate(mkBars(10, 0.1, 20)).Bullish {
		t.Fatal("20 rising bars should qualify")
	}

	bars := mkBars(10, 0.1, 21)
	bars[3].Close = math.NaN()
	bars[7].Close = 0
	if Evaluate(bars).Bullish {
		t.Fatal("only 19 valid closes remain, must not qualify")
	}
	if Evaluate(nil).Bullish {
		t.Fatal("empty history")
	}
}

type fakeSource struct {
	bars  map[string][]model.KLine
	err   error
	panic bool
	calls []string
}

func (f *fakeSource) GetHisKlines(_ context.Context, code string, count int) ([]model.KLine, error) {
	f.calls = append(f.calls, code)
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[code], nil
}

func TestCheckerSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	c := NewChecker(&fakeSource{err: errors.New("http 502")}, 60)
	if _, ok := c.Check(ctx, "600000"); ok {
		t.Fatal("fetch failure should not qualify")
	}
	c = NewChecker(&fakeSource{panic: true}, 60)
	if _, ok := c.Check(ctx, "600000"); ok {
		t.Fatal("panic should not qualify")
	}
}

func TestCheckerQualifies(t *testing.T) {
	src := &fakeSource{bars: map[string][]model.KLine{
		"600000": mkBars(10, 0.2, 40),
		"000001": mkBars(10, 0.2, 10),
	}}
	c := NewChecker(src, 0)
	if c.bars != DefaultBars {
		t.Fatalf("bars default %d", c.bars)
	}
	a, ok := c.Check(context.Background(), "600000")
	if !ok || a.MA20 <= 0 {
		t.Fatalf("expected bullish, got %+v", a)
	}
	if _, ok := c.Check(context.Background(), "000001"); ok {
		t.Fatal("short history should not qualify")
	}
}
