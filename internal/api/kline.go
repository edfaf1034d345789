package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"stockLeader/internal/model"
)

const maxKlineCount = 1000

// GetHisKlines 拉取 A 股前复权日 K 线，count 为条数（fqt=1 前复权，klt=101 日线）。
func (c *Client) GetHisKlines(ctx context.Context, code string, count int) ([]model.KLine, error) {
	if strings.TrimSpace(code) == "" || count <= 0 {
		return nil, fmt.Errorf("invalid code or count")
	}
	if count > maxKlineCount {
		count = maxKlineCount
	}
	url := fmt.Sprintf("%s?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56&klt=101&fqt=1&end=20500101&lmt=%d",
		c.klineURL, FormatCode(code), count)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseKlinesGJSON(body, code)
}

// parseKlinesGJSON 解析 data.klines："日期,开,收,高,低,量"；收盘价无法解析的行丢弃。
func parseKlinesGJSON(body []byte, code string) ([]model.KLine, error) {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, fmt.Errorf("%w: data.klines for %s", ErrNoData, code)
	}
	arr := klines.Array()
	out := make([]model.KLine, 0, len(arr))
	for _, v := range arr {
		s := strings.TrimSpace(v.String())
		if s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		if len(parts) < 5 {
			continue
		}
		closeVal := model.ParseNum(parts[2])
		if !closeVal.Valid {
			continue
		}
		var vol int64
		if len(parts) >= 6 {
			vol, _ = strconv.ParseInt(strings.TrimSpace(parts[5]), 10, 64)
		}
		out = append(out, model.KLine{
			Date:   parts[0],
			Open:   model.ParseNum(parts[1]).Or(0),
			Close:  closeVal.V,
			Volume: vol,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: klines for %s", ErrNoData, code)
	}
	return out, nil
}
