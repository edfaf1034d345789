package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"stockLeader/internal/model"
	"stockLeader/internal/trace"
)

// 全部 A 股：深主板、创业板、沪主板、科创板、北交所
const fsAllA = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"

// 快照字段：f2 现价 f3 涨跌幅(%) f5 成交量(手) f6 成交额 f8 换手率 f10 量比 f12 代码 f14 名称 f20 总市值
const snapshotFields = "f2,f3,f5,f6,f8,f10,f12,f14,f20"

// 分页
const (
	listPageSize = 100
	maxListPages = 200
)

// 接口字段到表列的映射
var snapshotColumns = []struct {
	field string
	col   model.Column
	set   func(*model.Quote, model.Num)
}{
	{"f2", model.ColPrice, func(q *model.Quote, n model.Num) { q.Price = n }},
	{"f3", model.ColChangePct, func(q *model.Quote, n model.Num) { q.ChangePct = n }},
	{"f5", model.ColVolume, func(q *model.Quote, n model.Num) { q.Volume = n }},
	{"f6", model.ColAmount, func(q *model.Quote, n model.Num) { q.Amount = n }},
	{"f8", model.ColTurnoverRate, func(q *model.Quote, n model.Num) { q.TurnoverRate = n }},
	{"f10", model.ColVolumeRatio, func(q *model.Quote, n model.Num) { q.VolumeRatio = n }},
	{"f20", model.ColMarketCap, func(q *model.Quote, n model.Num) { q.MarketCap = n }},
}

// Snapshot 拉取全市场快照，逐页合并为一张表。接口整体失败时返回 error。
func (c *Client) Snapshot(ctx context.Context) (*model.Table, error) {
	t := model.NewTable(model.ColCode, model.ColName)
	seen := make(map[string]struct{}, listPageSize)
	dups := 0
	trace.Log(ctx, "api: Snapshot start")
	for page := 1; page <= maxListPages; page++ {
		// fid=f12 按代码排序，盘中翻页期间顺序不随涨跌幅变化
		url := fmt.Sprintf("%s?pn=%d&pz=%d&po=1&np=1&fltt=2&invt=2&fid=f12&fs=%s&fields=%s",
			c.listURL, page, listPageSize, fsAllA, snapshotFields)
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("snapshot page %d: %w", page, err)
		}
		total, count, skipped, err := parseSnapshotPage(body, t, seen)
		if err != nil {
			return nil, fmt.Errorf("snapshot page %d: %w", page, err)
		}
		dups += skipped
		if count == 0 || total <= t.Len() || count < listPageSize {
			break
		}
	}
	if dups > 0 {
		trace.Warn(ctx, "api: Snapshot 跨页重复 %d 行，已去重", dups)
	}
	trace.Log(ctx, "api: Snapshot done rows=%d columns=%v", t.Len(), t.Columns())
	return t, nil
}

// parseSnapshotPage 解析 data.total 与 data.diff（数组或 "0","1",... 对象），行追加到 t。
// count 为本页原始行数（用于判断末页）；seen 中已有的代码计入 dups 不再追加。
// data 为 null 表示已无更多分页。
func parseSnapshotPage(body []byte, t *model.Table, seen map[string]struct{}) (total, count, dups int, err error) {
	if !gjson.ValidBytes(body) {
		return 0, 0, 0, fmt.Errorf("invalid json: %s", truncateForLog(body))
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return 0, 0, 0, nil
	}
	total = int(data.Get("total").Int())
	diff := data.Get("diff")
	if !diff.IsArray() && !diff.IsObject() {
		return total, 0, 0, nil
	}
	diff.ForEach(func(_, v gjson.Result) bool {
		code := strings.TrimSpace(v.Get("f12").String())
		if code == "" {
			return true
		}
		count++
		if _, ok := seen[code]; ok {
			dups++
			return true
		}
		seen[code] = struct{}{}
		q := model.Quote{Code: code, Name: strings.TrimSpace(v.Get("f14").String())}
		for _, sc := range snapshotColumns {
			r := v.Get(sc.field)
			if !r.Exists() {
				continue
			}
			t.AddColumn(sc.col)
			sc.set(&q, numOf(r))
		}
		t.Rows = append(t.Rows, q)
		return true
	})
	return total, count, dups, nil
}

func numOf(r gjson.Result) model.Num {
	if r.Type == gjson.Null {
		return model.Num{}
	}
	return model.ParseNum(r.String())
}
