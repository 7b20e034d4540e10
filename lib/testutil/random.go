package testutil

import (
	"fmt"
	"testing"

	"stdmark-backend/lib/marks"

	"github.com/mazen160/go-random"
)

// RandomMark fabricates a plausible mark record for tests that only
// care about diffing and ordering semantics, not real subject names.
func RandomMark(t testing.TB, year int, month int) marks.MarkRecord {
	subject, err := random.String(12)
	if err != nil {
		t.Fatal(err)
	}
	mark, err := random.IntRange(30, 100)
	if err != nil {
		t.Fatal(err)
	}
	return marks.MarkRecord{
		Subject:  subject,
		Session:  "الدورة الأولى",
		Mark:     fmt.Sprint(mark),
		Status:   "ناجح",
		Date:     fmt.Sprintf("%04d-%02d-15", year, month),
		Semester: "السنة الأولى - الفصل الأول",
	}
}
