package service

import (
	"regexp"
	"strconv"
	"strings"

	"habit-service/internal/domain/service"
)

// durationPattern matches an explicit duration like "30 min" or "1 hour" in
// the habit text. An explicit duration always wins over the keyword table.
var durationPattern = regexp.MustCompile(`(\d+)\s*(min|minute|minutes|hour|hours|hr|hrs)`)

// keywordMinutes maps activity keywords to typical per-occurrence minutes
var keywordMinutes = []struct {
	keyword string
	minutes int32
}{
	{"workout", 45},
	{"exercise", 45},
	{"gym", 60},
	{"run", 30},
	{"jog", 30},
	{"meditation", 20},
	{"meditate", 20},
	{"read", 30},
	{"study", 45},
	{"journal", 15},
	{"write", 30},
	{"cook", 30},
	{"clean", 20},
	{"water", 2},
	{"vitamin", 1},
	{"stretch", 10},
}

type keywordEstimator struct {
	defaultMinutes int32
}

// NewKeywordEstimator returns the default duration estimator: an explicit
// "N min"/"N hours" in the title or notes wins, then the first matching
// activity keyword, then defaultMinutes.
func NewKeywordEstimator(defaultMinutes int32) service.DurationEstimator {
	return &keywordEstimator{defaultMinutes: defaultMinutes}
}

func (e *keywordEstimator) Estimate(title, notes string) int32 {
	text := strings.ToLower(title + " " + notes)

	if m := durationPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			if strings.HasPrefix(m[2], "h") {
				n *= 60
			}
			return int32(n)
		}
	}

	for _, kw := range keywordMinutes {
		if strings.Contains(text, kw.keyword) {
			return kw.minutes
		}
	}

	return e.defaultMinutes
}
