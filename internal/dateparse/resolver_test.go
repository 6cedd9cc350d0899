package dateparse

import (
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestResolve_SpreadsheetSerial(t *testing.T) {
	t.Parallel()

	res := Resolve("45924")
	require.True(t, res.Resolved())
	require.Equal(t, serialEpoch.AddDays(45924), res.Date)
	require.Equal(t, date(2025, time.September, 24), res.Date)

	res = Resolve("45924.0")
	require.True(t, res.Resolved())
	require.Equal(t, date(2025, time.September, 24), res.Date)
}

func TestResolve_Cascade(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want civil.Date
	}{
		{"20240115", date(2024, time.January, 15)},
		{"240115", date(2024, time.January, 15)},
		{"15/01/2024", date(2024, time.January, 15)},
		{"5/1/2024", date(2024, time.January, 5)},
		{"01/15/2024", date(2024, time.January, 15)},
		{"03-04-2024", date(2024, time.April, 3)},
		{"2024-01-15", date(2024, time.January, 15)},
		{"15 Jan 2024", date(2024, time.January, 15)},
		{"15 january 2024", date(2024, time.January, 15)},
		{"2024.01.15", date(2024, time.January, 15)},
		{"15.01.2024", date(2024, time.January, 15)},
		{"3rd April, 2024", date(2024, time.April, 3)},
		{"April 27 2025", date(2025, time.April, 27)},
		{"Monday, 15 January 2024", date(2024, time.January, 15)},
		{"2024/01/15", date(2024, time.January, 15)},
		{"2024-01-15T08:30:00", date(2024, time.January, 15)},
		{"15/01/2024 10:30", date(2024, time.January, 15)},
		{"1/2/24", date(2024, time.January, 2)},
		{"  21st March 2023,  ", date(2023, time.March, 21)},
	}

	for _, tc := range cases {
		res := Resolve(tc.raw)
		require.Truef(t, res.Resolved(), "raw=%q", tc.raw)
		require.Equalf(t, tc.want, res.Date, "raw=%q", tc.raw)
		require.Equal(t, tc.raw, res.Raw)
	}
}

func TestResolve_Unresolved(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "nan", "NaN", "NONE", "na", "hello", "12th", "April 2024", "29500", "20241315", ","} {
		res := Resolve(raw)
		require.Falsef(t, res.Resolved(), "raw=%q resolved to %v", raw, res.Date)
		require.Equal(t, raw, res.Raw)
	}

	res := Resolve(" nan ")
	require.False(t, res.Resolved())
	require.Equal(t, " nan ", res.Raw)
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{"45924", "03-04-2024", "1/2/24", "3rd April, 2024", "garbage", ""}
	for _, raw := range inputs {
		require.Equal(t, Resolve(raw), Resolve(raw))
	}
}

func TestExplain_StrategyNames(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"45924":           "numeric",
		"20240115":        "numeric",
		"15/01/2024":      "layout",
		"3rd April, 2024": "freeform_month_first",
		"nan":             "",
		"hello":           "",
	}
	for raw, want := range cases {
		_, got := Explain(raw)
		require.Equalf(t, want, got, "raw=%q", raw)
	}
}

func TestResolve_DayDateRoundTrip(t *testing.T) {
	t.Parallel()

	for _, d := range []civil.Date{
		date(2024, time.January, 1),
		date(2024, time.February, 29),
		date(2025, time.December, 31),
		date(1999, time.July, 4),
	} {
		for _, rendered := range []string{
			fmt.Sprintf("%02d-%02d-%04d", d.Day, int(d.Month), d.Year),
			d.String(),
		} {
			res := Resolve(rendered)
			require.Truef(t, res.Resolved(), "rendered=%q", rendered)
			require.Equal(t, d, res.Date)
		}
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	require.Equal(t, "3 April, 2024", Clean(" 3rd April, 2024,, "))
	require.Equal(t, "45909", Clean("45909.000"))
	require.Equal(t, "45909.5", Clean("45909.5"))
	require.Equal(t, "1 2 3", Clean("1st 2nd 3rd"))
}

func TestFromSerial_Range(t *testing.T) {
	t.Parallel()

	d, ok := FromSerial(maxSerial)
	require.True(t, ok)
	require.Equal(t, date(2262, time.April, 11), d)

	_, ok = FromSerial(maxSerial + 1)
	require.False(t, ok)
	_, ok = FromSerial(-1)
	require.False(t, ok)
}

func TestRecover(t *testing.T) {
	t.Parallel()

	require.False(t, Resolve("logged 45924 late").Resolved())

	res := Recover("logged 45924 late")
	require.True(t, res.Resolved())
	require.Equal(t, date(2025, time.September, 24), res.Date)
	require.Equal(t, "logged 45924 late", res.Raw)

	res = Recover("see 15/01/2024 entry")
	require.True(t, res.Resolved())
	require.Equal(t, date(2024, time.January, 15), res.Date)

	res = Recover("week of 15 01 2024")
	require.True(t, res.Resolved())
	require.Equal(t, date(2024, time.January, 15), res.Date)

	require.False(t, Recover("no date here").Resolved())
	require.False(t, Recover("").Resolved())
}
