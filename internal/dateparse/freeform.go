package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// skipWords 自由文本中可忽略的词（星期、介词、时区、上下午）
var skipWords = map[string]struct{}{
	"mon": {}, "monday": {},
	"tue": {}, "tues": {}, "tuesday": {},
	"wed": {}, "wednesday": {},
	"thu": {}, "thur": {}, "thurs": {}, "thursday": {},
	"fri": {}, "friday": {},
	"sat": {}, "saturday": {},
	"sun": {}, "sunday": {},
	"of": {}, "the": {}, "on": {}, "at": {},
	"am": {}, "pm": {},
	"utc": {}, "gmt": {}, "z": {},
}

var (
	clockRe   = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?(am|pm)?$`)
	isoTimeRe = regexp.MustCompile(`(\d)[tT](\d{1,2}:)`)
)

type number struct {
	value  int
	digits int
}

// yearLike 三位以上或大于 31 的数只能是年份
func (n number) yearLike() bool {
	return n.digits >= 3 || n.value > 31
}

func parseMonthFirst(s string) (civil.Date, bool) {
	return parseFreeform(s, false)
}

func parseDayFirst(s string) (civil.Date, bool) {
	return parseFreeform(s, true)
}

// parseFreeform 宽松的分词解析。
//
// 只接受数字、月份名和可忽略词；必须同时得到日和年，不会用"今天"补齐缺失部分。
// 三个纯数字时：首个像年份则按 Y-M-D（第二个大于 12 时按 Y-D-M）；
// 首个大于 12，或 dayFirst 且第二个不大于 12，按 D-M-Y；否则 M-D-Y。
func parseFreeform(s string, dayFirst bool) (civil.Date, bool) {
	s = isoTimeRe.ReplaceAllString(strings.ToLower(s), "${1} ${2}")
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '/' || r == '-' || r == '.'
	})

	var nums []number
	var month time.Month
	for _, tok := range tokens {
		if _, ok := skipWords[tok]; ok {
			continue
		}
		if clockRe.MatchString(tok) {
			continue
		}
		if allDigits(tok) {
			if len(tok) > 4 {
				return civil.Date{}, false
			}
			v, _ := strconv.Atoi(tok)
			nums = append(nums, number{value: v, digits: len(tok)})
			continue
		}
		m, ok := monthNames[tok]
		if !ok || month != 0 {
			return civil.Date{}, false
		}
		month = m
	}

	var y, d number
	var m int
	switch {
	case month != 0:
		if len(nums) != 2 {
			return civil.Date{}, false
		}
		m = int(month)
		if nums[0].yearLike() {
			y, d = nums[0], nums[1]
		} else {
			d, y = nums[0], nums[1]
		}
	case len(nums) == 3:
		a, b, c := nums[0], nums[1], nums[2]
		switch {
		case a.yearLike():
			y = a
			if b.value > 12 {
				d, m = b, c.value
			} else {
				m, d = b.value, c
			}
		case a.value > 12 || (dayFirst && b.value <= 12):
			d, m, y = a, b.value, c
		default:
			m, d, y = a.value, b, c
		}
	default:
		return civil.Date{}, false
	}

	year := expandYear(y)
	date := civil.Date{Year: year, Month: time.Month(m), Day: d.value}
	if year < 1 || m < 1 || m > 12 || !date.IsValid() {
		return civil.Date{}, false
	}
	return date, true
}

// expandYear 两位年份与 %y 一致：69-99 -> 19xx，00-68 -> 20xx
func expandYear(n number) int {
	if n.digits > 2 {
		return n.value
	}
	if n.value >= 69 {
		return 1900 + n.value
	}
	return 2000 + n.value
}
