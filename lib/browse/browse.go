package browse

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"stdmark-backend/lib/marks"
)

// DefaultPageSize matches the portal bot's RESULTS_PER_PAGE.
const DefaultPageSize = 5

// yearKeywords maps the year token shown on filter buttons to the
// ordinal keyword embedded in semester headings. The table is
// ordered, classification checks it front to back and the first
// containing keyword wins. A heading holding two ordinals (e.g.
// "الأول" is a substring of some longer labels) is therefore
// classified by whichever entry comes first, which mirrors the
// portal's own labelling quirks.
var yearKeywords = []YearOption{
	{Token: "1", Keyword: "الأول"},
	{Token: "2", Keyword: "الثاني"},
	{Token: "3", Keyword: "الثالث"},
	{Token: "4", Keyword: "الرابع"},
	{Token: "5", Keyword: "الخامس"},
	{Token: "6", Keyword: "السادس"},
}

const (
	semesterFirstKeyword  = "الأول"
	semesterSecondKeyword = "الثاني"
)

type YearOption struct {
	Token   string
	Keyword string
}

type SortKey int

const (
	SortNewestFirst SortKey = iota
	SortOldestFirst
)

type SemesterChoice int

const (
	SemesterFirst SemesterChoice = iota
	SemesterSecond
	SemesterAll
)

// Session is the in-memory state of one results-browsing
// conversation. Full is immutable once the session is created,
// Display is the derived view the presentation layer paginates over.
type Session struct {
	Info         marks.StudentInfo
	UniversityID string
	Full         []marks.MarkRecord
	Display      []marks.MarkRecord
	Page         int
	PageSize     int

	yearFiltered []marks.MarkRecord
}

// NewSession seeds a session from a fetched or persisted mark set.
// Display starts newest-first regardless of the order of `full`.
func NewSession(info marks.StudentInfo, universityID string, full []marks.MarkRecord, pageSize int) *Session {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	s := &Session{
		Info:         info,
		UniversityID: universityID,
		Full:         full,
		PageSize:     pageSize,
	}
	s.Sort(SortNewestFirst)
	return s
}

func sortByDate(records []marks.MarkRecord, descending bool) []marks.MarkRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b marks.MarkRecord) int {
		c := strings.Compare(a.Date, b.Date)
		if descending {
			return -c
		}
		return c
	})
	return out
}

// Sort rederives Display from the full unfiltered set and resets
// pagination. The date field is an ISO-like string so plain string
// comparison orders it correctly.
func (s *Session) Sort(key SortKey) {
	s.Display = sortByDate(s.Full, key == SortNewestFirst)
	s.Page = 0
}

// NextPage advances the page index. The engine does not clamp the
// upper bound, callers must stop offering "next" once
// Pagination().HasNext is false.
func (s *Session) NextPage() {
	s.Page++
}

// PrevPage steps back one page, clamped at zero.
func (s *Session) PrevPage() {
	s.Page = max(0, s.Page-1)
}

type PageView struct {
	Records []marks.MarkRecord
	// 1-based display bounds of this page, Start > End means the
	// page is empty
	Start   int
	End     int
	Total   int
	HasPrev bool
	HasNext bool
}

// Pagination slices the current page out of Display.
func (s *Session) Pagination() PageView {
	total := len(s.Display)
	start := s.Page * s.PageSize
	end := min(start+s.PageSize, total)
	if start > total {
		start = total
	}
	return PageView{
		Records: s.Display[start:end],
		Start:   start + 1,
		End:     end,
		Total:   total,
		HasPrev: s.Page > 0,
		HasNext: end < total,
	}
}

// AvailableYears scans the full set's semester headings for known
// ordinal keywords and returns the distinct years found, ordered by
// token. Empty output is a normal state, not every college encodes
// a year in its headings.
func AvailableYears(records []marks.MarkRecord) []YearOption {
	seen := map[string]bool{}
	var out []YearOption
	for _, opt := range yearKeywords {
		if seen[opt.Token] {
			continue
		}
		for _, m := range records {
			if strings.Contains(m.Semester, opt.Keyword) {
				seen[opt.Token] = true
				out = append(out, opt)
				break
			}
		}
	}
	return out
}

func filterByKeyword(records []marks.MarkRecord, keyword string) []marks.MarkRecord {
	var out []marks.MarkRecord
	for _, m := range records {
		if strings.Contains(m.Semester, keyword) {
			out = append(out, m)
		}
	}
	return out
}

// FilterYear narrows the full set down to one study year. It only
// stages the intermediate subset, Display is untouched until a
// semester choice follows.
func (s *Session) FilterYear(token string) error {
	for _, opt := range yearKeywords {
		if opt.Token == token {
			s.yearFiltered = filterByKeyword(s.Full, opt.Keyword)
			return nil
		}
	}
	return fmt.Errorf("unknown year token: %q", token)
}

// FilterSemester resolves the staged year subset into Display and
// resets pagination.
func (s *Session) FilterSemester(choice SemesterChoice) {
	switch choice {
	case SemesterFirst:
		s.Display = filterByKeyword(s.yearFiltered, semesterFirstKeyword)
	case SemesterSecond:
		s.Display = filterByKeyword(s.yearFiltered, semesterSecondKeyword)
	case SemesterAll:
		s.Display = s.yearFiltered
	}
	s.Page = 0
}

type GPAResult struct {
	Sum   float64
	Count int
	GPA   float64
}

// Valid reports whether any numeric marks contributed. An all-text
// subset ("منقول" and friends) yields no average at all rather than
// a division by zero.
func (r GPAResult) Valid() bool {
	return r.Count > 0
}

// String renders the percentage with two decimals for display.
func (r GPAResult) String() string {
	if !r.Valid() {
		return "no numeric marks available"
	}
	return fmt.Sprintf("%.2f %%", r.GPA)
}

// GPA averages every record whose mark parses as a float. Records
// carrying status tokens instead of numbers are skipped from both
// the sum and the count.
func GPA(records []marks.MarkRecord) GPAResult {
	var result GPAResult
	for _, m := range records {
		value, err := strconv.ParseFloat(strings.TrimSpace(m.Mark), 64)
		if err != nil {
			continue
		}
		result.Sum += value
		result.Count++
	}
	if result.Count > 0 {
		result.GPA = result.Sum / float64(result.Count)
	}
	return result
}

// GPAForYear computes the average over the subset of the full set
// belonging to one study year, or over everything when token is
// "all".
func (s *Session) GPAForYear(token string) (GPAResult, error) {
	if token == "all" {
		return GPA(s.Full), nil
	}
	for _, opt := range yearKeywords {
		if opt.Token == token {
			return GPA(filterByKeyword(s.Full, opt.Keyword)), nil
		}
	}
	return GPAResult{}, fmt.Errorf("unknown year token: %q", token)
}
