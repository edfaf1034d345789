package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stockLeader/internal/model"
)

func testClient(srvURL string) *Client {
	return NewClient(Options{
		ListURL:    srvURL + "/list",
		KLineURL:   srvURL + "/kline",
		RetryDelay: time.Millisecond,
	})
}

func TestFormatCode(t *testing.T) {
	cases := map[string]string{
		"600519":  "1.600519",
		"510300":  "1.510300",
		"000001":  "0.000001",
		"300750":  "0.300750",
		"920001":  "0.920001",
		" 601318": "1.601318",
		"":        "0.000000",
	}
	for in, want := range cases {
		if got := FormatCode(in); got != want {
			t.Fatalf("FormatCode(%q)=%q want %q", in, got, want)
		}
	}
}

func TestSnapshotPagesAndDefensiveValues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") == "" {
			t.Errorf("missing referer header")
		}
		switch r.URL.Query().Get("pn") {
		case "1":
			// first page full (listPageSize rows) to force a second request
			var b strings.Builder
			b.WriteString(`{"rc":0,"data":{"total":101,"diff":[`)
			for i := 0; i < listPageSize; i++ {
				if i > 0 {
					b.WriteString(",")
				}
				fmt.Fprintf(&b, `{"f2":10.5,"f3":3.2,"f5":1000,"f6":1050000,"f8":"-","f10":1.1,"f12":"6%05d","f14":"S%d","f20":12000000000}`, i, i)
			}
			b.WriteString(`]}}`)
			_, _ = w.Write([]byte(b.String()))
		case "2":
			_, _ = w.Write([]byte(`{"rc":0,"data":{"total":101,"diff":{"0":{"f2":"-","f3":null,"f12":"000001","f14":"平安银行","f20":"2.1e11"}}}}`))
		default:
			_, _ = w.Write([]byte(`{"rc":0,"data":null}`))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tbl, err := testClient(srv.URL).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if tbl.Len() != listPageSize+1 {
		t.Fatalf("rows=%d", tbl.Len())
	}
	first := tbl.Rows[0]
	if first.Code != "600000" || !first.ChangePct.Valid || first.ChangePct.V != 3.2 {
		t.Fatalf("first row: %+v", first)
	}
	if first.TurnoverRate.Valid {
		t.Fatal(`"-" turnover should be invalid`)
	}
	last := tbl.Rows[tbl.Len()-1]
	if last.Code != "000001" || last.Price.Valid || last.ChangePct.Valid {
		t.Fatalf("last row: %+v", last)
	}
	if !last.MarketCap.Valid || last.MarketCap.V != 2.1e11 {
		t.Fatalf("string market cap not parsed: %+v", last.MarketCap)
	}
	for _, c := range []model.Column{model.ColChangePct, model.ColTurnoverRate, model.ColMarketCap, model.ColVolumeRatio} {
		if !tbl.Has(c) {
			t.Fatalf("column %s not marked present", c)
		}
	}
}

func TestSnapshotDropsRowsRepeatedAcrossPages(t *testing.T) {
	// page 2 starts one row early: 600099 is delivered twice
	page := func(from, n int) string {
		var b strings.Builder
		b.WriteString(`{"data":{"total":200,"diff":[`)
		for i := from; i < from+n; i++ {
			if i > from {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"f3":3,"f8":5,"f12":"6%05d","f14":"S","f20":1e10}`, i)
		}
		b.WriteString(`]}}`)
		return b.String()
	}
	var sortField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sortField = r.URL.Query().Get("fid")
		switch r.URL.Query().Get("pn") {
		case "1":
			_, _ = w.Write([]byte(page(0, listPageSize)))
		case "2":
			_, _ = w.Write([]byte(page(listPageSize-1, listPageSize)))
		default:
			_, _ = w.Write([]byte(`{"data":null}`))
		}
	}))
	defer srv.Close()

	tbl, err := testClient(srv.URL).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sortField != "f12" {
		t.Fatalf("snapshot should page in code order, fid=%q", sortField)
	}
	seen := map[string]int{}
	for _, r := range tbl.Rows {
		seen[r.Code]++
		if seen[r.Code] > 1 {
			t.Fatalf("code %s appears twice", r.Code)
		}
	}
	if tbl.Len() != 2*listPageSize-1 {
		t.Fatalf("rows=%d want %d", tbl.Len(), 2*listPageSize-1)
	}
}

func TestSnapshotMissingColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"total":1,"diff":[{"f3":4.1,"f12":"600001","f14":"X","f20":9e9}]}}`))
	}))
	defer srv.Close()

	tbl, err := testClient(srv.URL).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if tbl.Has(model.ColTurnoverRate) {
		t.Fatal("turnover column should be absent")
	}
	if !tbl.Has(model.ColChangePct) {
		t.Fatal("pct column should be present")
	}
}

func TestSnapshotRetriesThenFails(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Snapshot(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&hits); got != maxRetries {
		t.Fatalf("hits=%d want %d", got, maxRetries)
	}
}

func TestSnapshotRecoversAfterRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"total":1,"diff":[{"f3":4.1,"f12":"600001","f14":"X"}]}}`))
	}))
	defer srv.Close()

	tbl, err := testClient(srv.URL).Snapshot(context.Background())
	if err != nil || tbl.Len() != 1 {
		t.Fatalf("rows=%d err=%v", tbl.Len(), err)
	}
}

func TestGetHisKlines(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/kline", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("secid") != "1.600519" || q.Get("lmt") != "60" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":{"code":"600519","klines":[
			"2026-10-13,1500.0,1510.5,1520.0,1490.0,12345,0",
			"2026-10-14,1510.5,-,1520.0,1490.0,100,0",
			"bad",
			"2026-10-15,1511.0,1530.25,1540.0,1500.0,23456,0"
		]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	kl, err := testClient(srv.URL).GetHisKlines(context.Background(), "600519", 60)
	if err != nil {
		t.Fatalf("GetHisKlines: %v", err)
	}
	if len(kl) != 2 {
		t.Fatalf("klines=%d: %+v", len(kl), kl)
	}
	if kl[0].Close != 1510.5 || kl[0].Volume != 12345 || kl[1].Close != 1530.25 {
		t.Fatalf("parsed klines: %+v", kl)
	}
}

func TestGetHisKlinesNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rc":0,"data":null}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetHisKlines(context.Background(), "000001", 60)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := testClient(srv.URL).GetHisKlines(context.Background(), "", 60); err == nil {
		t.Fatal("empty code should fail")
	}
}
