package browse

import (
	"fmt"
	"testing"

	"stdmark-backend/lib/marks"

	"github.com/stretchr/testify/require"
)

func mark(subject, date, markValue, semester string) marks.MarkRecord {
	return marks.MarkRecord{
		Subject:  subject,
		Session:  "الدورة الأولى",
		Mark:     markValue,
		Status:   "ناجح",
		Date:     date,
		Semester: semester,
	}
}

func yearOne(semester int) string {
	if semester == 1 {
		return "السنة الأولى - الفصل الأول"
	}
	return "السنة الأولى - الفصل الثاني"
}

func yearTwo() string {
	return "السنة الثانية - الفصل الأول"
}

func TestSessionDefaultsNewestFirst(t *testing.T) {
	s := NewSession(marks.StudentInfo{}, "111", []marks.MarkRecord{
		mark("أ", "2024-02-03", "50", yearOne(1)),
		mark("ب", "2024-09-01", "60", yearTwo()),
		mark("ج", "2024-02-10", "70", yearOne(2)),
	}, 0)

	require.Equal(t, DefaultPageSize, s.PageSize)
	require.Equal(t, "2024-09-01", s.Display[0].Date)
	require.Equal(t, "2024-02-03", s.Display[2].Date)
	// the full set keeps its original order
	require.Equal(t, "أ", s.Full[0].Subject)
}

func TestPaginationReconstructsDisplay(t *testing.T) {
	var full []marks.MarkRecord
	for i := 0; i < 12; i++ {
		full = append(full, mark(fmt.Sprintf("مادة %02d", i), fmt.Sprintf("2024-01-%02d", i+1), "60", yearOne(1)))
	}
	s := NewSession(marks.StudentInfo{}, "111", full, 5)

	// walking all pages forward re-yields Display exactly once
	var walked []marks.MarkRecord
	for {
		view := s.Pagination()
		walked = append(walked, view.Records...)
		if !view.HasNext {
			break
		}
		s.NextPage()
	}
	require.Equal(t, s.Display, walked)

	view := s.Pagination()
	require.Equal(t, 11, view.Start)
	require.Equal(t, 12, view.End)
	require.True(t, view.HasPrev)
	require.False(t, view.HasNext)
}

func TestPrevPageClampsAtZero(t *testing.T) {
	s := NewSession(marks.StudentInfo{}, "111", []marks.MarkRecord{
		mark("أ", "2024-02-03", "50", yearOne(1)),
	}, 5)
	s.PrevPage()
	s.PrevPage()
	require.Equal(t, 0, s.Page)
	require.False(t, s.Pagination().HasPrev)
}

func TestAvailableYears(t *testing.T) {
	records := []marks.MarkRecord{
		mark("أ", "2024-02-03", "50", yearOne(1)),
		mark("ب", "2024-06-03", "55", yearOne(2)),
		mark("ج", "2024-09-01", "60", yearTwo()),
	}

	years := AvailableYears(records)
	// "الأول" and "الثاني" both appear in semester suffixes too, so
	// years one and two are each reported once
	require.Equal(t, []YearOption{
		{Token: "1", Keyword: "الأول"},
		{Token: "2", Keyword: "الثاني"},
	}, years)

	require.Empty(t, AvailableYears(nil))
}

func TestFilterYearThenSemester(t *testing.T) {
	s := NewSession(marks.StudentInfo{}, "111", []marks.MarkRecord{
		mark("أ", "2024-02-03", "50", yearOne(1)),
		mark("ب", "2024-06-03", "55", yearOne(2)),
		mark("ج", "2024-09-01", "60", yearTwo()),
	}, 5)

	require.Error(t, s.FilterYear("9"))

	require.NoError(t, s.FilterYear("2"))
	// display untouched until a semester choice lands
	require.Len(t, s.Display, 3)

	s.FilterSemester(SemesterAll)
	// "الثانية" contains "الثاني", year two headings match, and so
	// does year one's second semester
	require.Len(t, s.Display, 2)
	require.Equal(t, 0, s.Page)

	// "الأول" is a substring of "الأولى" and of "الفصل الأول", so the
	// year-one filter keeps every heading here. Inherited from the
	// portal's labelling, not worth second-guessing.
	require.NoError(t, s.FilterYear("1"))
	s.FilterSemester(SemesterFirst)
	require.Len(t, s.Display, 3)
}

func TestGPA(t *testing.T) {
	result := GPA([]marks.MarkRecord{
		mark("أ", "2024-02-03", "90", yearOne(1)),
		mark("ب", "2024-02-04", "80", yearOne(1)),
		mark("ج", "2024-02-05", "منقول", yearOne(1)),
	})
	require.True(t, result.Valid())
	require.Equal(t, 2, result.Count)
	require.InDelta(t, 170.0, result.Sum, 1e-9)
	require.Equal(t, "85.00 %", result.String())

	empty := GPA([]marks.MarkRecord{
		mark("ج", "2024-02-05", "محروم", yearOne(1)),
	})
	require.False(t, empty.Valid())
	require.Equal(t, "no numeric marks available", empty.String())
}

func TestGPAForYear(t *testing.T) {
	s := NewSession(marks.StudentInfo{}, "111", []marks.MarkRecord{
		mark("أ", "2024-02-03", "90", yearOne(1)),
		mark("ج", "2024-09-01", "50", yearTwo()),
	}, 5)

	all, err := s.GPAForYear("all")
	require.NoError(t, err)
	require.InDelta(t, 70.0, all.GPA, 1e-9)

	two, err := s.GPAForYear("2")
	require.NoError(t, err)
	require.InDelta(t, 50.0, two.GPA, 1e-9)

	_, err = s.GPAForYear("x")
	require.Error(t, err)
}

func TestIntentRouting(t *testing.T) {
	s := NewSession(marks.StudentInfo{}, "111", []marks.MarkRecord{
		mark("أ", "2024-02-03", "90", yearOne(1)),
		mark("ب", "2024-09-01", "50", yearTwo()),
	}, 1)

	intent, err := ParseIntent("page_next")
	require.NoError(t, err)
	_, err = s.Apply(intent)
	require.NoError(t, err)
	require.Equal(t, 1, s.Page)

	intent, err = ParseIntent("sort_oldest")
	require.NoError(t, err)
	_, err = s.Apply(intent)
	require.NoError(t, err)
	require.Equal(t, 0, s.Page)
	require.Equal(t, "2024-02-03", s.Display[0].Date)

	intent, err = ParseIntent("filter_year_2")
	require.NoError(t, err)
	require.Equal(t, Intent{Kind: KindFilterYear, Year: "2"}, intent)
	_, err = s.Apply(intent)
	require.NoError(t, err)

	intent, err = ParseIntent("filter_semester_all")
	require.NoError(t, err)
	_, err = s.Apply(intent)
	require.NoError(t, err)
	require.Len(t, s.Display, 1)

	intent, err = ParseIntent("gpa_calc_year_all")
	require.NoError(t, err)
	gpa, err := s.Apply(intent)
	require.NoError(t, err)
	require.InDelta(t, 70.0, gpa.GPA, 1e-9)

	_, err = ParseIntent("launch_missiles")
	require.Error(t, err)
}
