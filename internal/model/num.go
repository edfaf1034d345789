package model

import (
	"math"
	"strconv"
	"strings"
)

// Num 带有效标记的数值。行情接口对停牌、新股等缺失值返回 "-"，此时 Valid 为 false。
type Num struct {
	V     float64
	Valid bool
}

// Or 有效时返回值，否则返回 def。
func (n Num) Or(def float64) float64 {
	if n.Valid {
		return n.V
	}
	return def
}

// 视为缺失的占位文本
var missingTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"--":   {},
	"null": {},
	"None": {},
}

// ParseNum 防御式解析：去空白、去末尾 %、去千分位逗号；占位符、NaN、Inf 均视为无效。
func ParseNum(s string) Num {
	s = strings.TrimSpace(s)
	if _, ok := missingTokens[s]; ok {
		return Num{}
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Num{}
	}
	return Num{V: v, Valid: true}
}
