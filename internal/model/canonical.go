package model

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Field 规范字段名（输出列名）
type Field string

const (
	FieldDate      Field = "Date"
	FieldWeight    Field = "Weight"
	FieldNutrition Field = "Nutrition"
	FieldExercise  Field = "Exercise"
	FieldSleep     Field = "Sleep"
	FieldHygiene   Field = "Hygiene"
	FieldFood      Field = "Food"
)

// TrackedFields 日期之后的跟踪字段，顺序即输出列顺序
var TrackedFields = []Field{
	FieldWeight,
	FieldNutrition,
	FieldExercise,
	FieldSleep,
	FieldHygiene,
	FieldFood,
}

// CanonicalFields 全部规范字段（含 Date）
func CanonicalFields() []Field {
	out := make([]Field, 0, len(TrackedFields)+1)
	out = append(out, FieldDate)
	return append(out, TrackedFields...)
}

// DayDateLayout 输出日期格式 DD-MM-YYYY
const DayDateLayout = "02-01-2006"

// FormatDayDate 按 DD-MM-YYYY 渲染日期
func FormatDayDate(d civil.Date) string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, int(d.Month), d.Year)
}

// ParseDayDate 解析 DD-MM-YYYY
func ParseDayDate(s string) (civil.Date, error) {
	t, err := time.Parse(DayDateLayout, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid day date %q: %w", s, err)
	}
	return civil.DateOf(t), nil
}

// CanonicalDayRecord 单日规范记录（一次运行的最终产物，创建后不再修改）
type CanonicalDayRecord struct {
	Date      civil.Date
	Weight    string
	Nutrition string
	Exercise  string
	Sleep     string
	Hygiene   string
	Food      string
}

// Value 按字段名取值
func (r CanonicalDayRecord) Value(f Field) string {
	switch f {
	case FieldDate:
		return FormatDayDate(r.Date)
	case FieldWeight:
		return r.Weight
	case FieldNutrition:
		return r.Nutrition
	case FieldExercise:
		return r.Exercise
	case FieldSleep:
		return r.Sleep
	case FieldHygiene:
		return r.Hygiene
	case FieldFood:
		return r.Food
	}
	return ""
}

// SetValue 按字段名赋值，未知字段忽略
func (r *CanonicalDayRecord) SetValue(f Field, v string) {
	switch f {
	case FieldWeight:
		r.Weight = v
	case FieldNutrition:
		r.Nutrition = v
	case FieldExercise:
		r.Exercise = v
	case FieldSleep:
		r.Sleep = v
	case FieldHygiene:
		r.Hygiene = v
	case FieldFood:
		r.Food = v
	}
}

// Row 按 CanonicalFields 顺序输出一行
func (r CanonicalDayRecord) Row() []string {
	fields := CanonicalFields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = r.Value(f)
	}
	return out
}

type dayRecordJSON struct {
	Date      string `json:"date"`
	Weight    string `json:"weight"`
	Nutrition string `json:"nutrition"`
	Exercise  string `json:"exercise"`
	Sleep     string `json:"sleep"`
	Hygiene   string `json:"hygiene"`
	Food      string `json:"food"`
}

// MarshalJSON 日期按 DD-MM-YYYY 输出
func (r CanonicalDayRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(dayRecordJSON{
		Date:      FormatDayDate(r.Date),
		Weight:    r.Weight,
		Nutrition: r.Nutrition,
		Exercise:  r.Exercise,
		Sleep:     r.Sleep,
		Hygiene:   r.Hygiene,
		Food:      r.Food,
	})
}

// UnmarshalJSON 与 MarshalJSON 对称
func (r *CanonicalDayRecord) UnmarshalJSON(data []byte) error {
	var raw dayRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := ParseDayDate(raw.Date)
	if err != nil {
		return err
	}
	*r = CanonicalDayRecord{
		Date:      d,
		Weight:    raw.Weight,
		Nutrition: raw.Nutrition,
		Exercise:  raw.Exercise,
		Sleep:     raw.Sleep,
		Hygiene:   raw.Hygiene,
		Food:      raw.Food,
	}
	return nil
}
