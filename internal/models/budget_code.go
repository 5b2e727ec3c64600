// internal/models/budget_code.go
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// BudgetCode 场景预算的整数卢比值；编码为 JSON 整数
//
// 解码时接受小数、科学计数法和带引号的数字并向零截断，模型输出的
// 格式偏差不应让整份结果失效。无法识别的值记为 0。
type BudgetCode int64

func (b *BudgetCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*b = 0
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*b = 0
		return nil
	}
	switch {
	case v >= math.MaxInt64:
		*b = BudgetCode(math.MaxInt64)
	case v <= math.MinInt64:
		*b = BudgetCode(math.MinInt64)
	default:
		*b = BudgetCode(math.Trunc(v))
	}
	return nil
}
