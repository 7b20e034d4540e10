package browse

import (
	"fmt"
	"strings"
)

// Intent is the closed set of actions a browsing conversation can
// ask of the engine. The presentation layer parses whatever wire
// form it uses (callback payloads, CLI flags) into one of these and
// dispatches through Apply, there is no string matching inside the
// engine.
type Intent struct {
	Kind IntentKind
	// year token for KindFilterYear / KindGPAYear, "all" allowed
	// for KindGPAYear
	Year string
	// semester selection for KindFilterSemester
	Semester SemesterChoice
}

type IntentKind int

const (
	KindPageNext IntentKind = iota
	KindPagePrev
	KindSortNewest
	KindSortOldest
	KindFilterYear
	KindFilterSemester
	KindGPAYear
)

// routing table from callback payloads to intents, kept as data so
// the button wiring lives in one place. Prefix entries consume the
// remainder of the payload as the intent argument.
var exactRoutes = map[string]Intent{
	"page_next":           {Kind: KindPageNext},
	"page_prev":           {Kind: KindPagePrev},
	"sort_newest":         {Kind: KindSortNewest},
	"sort_oldest":         {Kind: KindSortOldest},
	"filter_semester_1":   {Kind: KindFilterSemester, Semester: SemesterFirst},
	"filter_semester_2":   {Kind: KindFilterSemester, Semester: SemesterSecond},
	"filter_semester_all": {Kind: KindFilterSemester, Semester: SemesterAll},
}

var prefixRoutes = []struct {
	prefix string
	kind   IntentKind
}{
	{prefix: "filter_year_", kind: KindFilterYear},
	{prefix: "gpa_calc_year_", kind: KindGPAYear},
}

// ParseIntent maps a callback payload to an intent.
func ParseIntent(payload string) (Intent, error) {
	if intent, ok := exactRoutes[payload]; ok {
		return intent, nil
	}
	for _, route := range prefixRoutes {
		if strings.HasPrefix(payload, route.prefix) {
			return Intent{
				Kind: route.kind,
				Year: strings.TrimPrefix(payload, route.prefix),
			}, nil
		}
	}
	return Intent{}, fmt.Errorf("unroutable payload: %q", payload)
}

// Apply dispatches one intent against the session. GPA intents do
// not mutate the session, their result comes back to the caller.
func (s *Session) Apply(intent Intent) (GPAResult, error) {
	switch intent.Kind {
	case KindPageNext:
		s.NextPage()
	case KindPagePrev:
		s.PrevPage()
	case KindSortNewest:
		s.Sort(SortNewestFirst)
	case KindSortOldest:
		s.Sort(SortOldestFirst)
	case KindFilterYear:
		return GPAResult{}, s.FilterYear(intent.Year)
	case KindFilterSemester:
		s.FilterSemester(intent.Semester)
	case KindGPAYear:
		return s.GPAForYear(intent.Year)
	}
	return GPAResult{}, nil
}
