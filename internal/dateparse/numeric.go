package dateparse

import (
	"math"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
)

// serialThreshold 大于该值的纯数字按表格日期序列号处理（约 1980 年以后）
const serialThreshold = 29500

var (
	// serialEpoch 表格日期序列号的零点
	serialEpoch = civil.Date{Year: 1899, Month: time.December, Day: 30}
	// maxSerialDate 可表示的最大日期（纳秒时间戳上限 2262-04-11）
	maxSerialDate = civil.DateOf(time.Unix(0, math.MaxInt64).UTC())
	maxSerial     = int64(maxSerialDate.DaysSince(serialEpoch))
)

// parseNumeric 纯数字串：序列号 > YYYYMMDD > YYMMDD
func parseNumeric(s string) (civil.Date, bool) {
	if !allDigits(s) {
		return civil.Date{}, false
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > serialThreshold {
		if d, ok := FromSerial(n); ok {
			return d, true
		}
	}

	switch len(s) {
	case 8:
		return parseExact("20060102", s)
	case 6:
		return parseExact("060102", s)
	}
	return civil.Date{}, false
}

// FromSerial 表格日期序列号转日期，超出可表示范围时返回 false
func FromSerial(n int64) (civil.Date, bool) {
	if n < 0 || n > maxSerial {
		return civil.Date{}, false
	}
	return serialEpoch.AddDays(int(n)), true
}

func parseExact(layout, s string) (civil.Date, bool) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
