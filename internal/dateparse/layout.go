package dateparse

import "cloud.google.com/go/civil"

// layouts 固定格式，逐个精确匹配。显式格式一律日在月前，%m/%d/%Y 仅作为后备。
var layouts = []string{
	"2/1/2006",       // %d/%m/%Y
	"2-1-2006",       // %d-%m-%Y
	"2006-1-2",       // %Y-%m-%d
	"1/2/2006",       // %m/%d/%Y
	"2 Jan 2006",     // %d %b %Y
	"2 January 2006", // %d %B %Y
	"2006.1.2",       // %Y.%m.%d
	"2.1.2006",       // %d.%m.%Y
}

func parseLayout(s string) (civil.Date, bool) {
	for _, layout := range layouts {
		if d, ok := parseExact(layout, s); ok {
			return d, true
		}
	}
	return civil.Date{}, false
}
