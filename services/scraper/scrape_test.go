package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"stdmark-backend/lib/marks"

	"github.com/stretchr/testify/require"
)

const testSelectors = `{
  request_verification_token: "input[name=__RequestVerificationToken]",
  college_select_dropdown: "select#CollegeId",
  college_option: "option",
  validation_error_summary: "div.validation-summary-errors",
  student_info_card: "div.student-info",
  info_key_span: "span.head",
  info_value_span: "span.bottom",
  result_panels: "div.panel.panel-default",
  panel_heading: "div.panel-heading",
  results_table: "table.table",
  table_body: "tbody",
  table_row: "tr",
  table_cell: "td",
}`

const landingPage = `<html><body>
<form>
<input name="__RequestVerificationToken" type="hidden" value="token-abc" />
<select id="CollegeId">
<option value="">-- اختر الكلية --</option>
<option value="7">كلية الطب البشري</option>
<option value="12">كلية الهندسة المدنية</option>
<option value="19">كلية الحقوق</option>
</select>
</form>
</body></html>`

const resultPage = `<html><body>
<div class="student-info">
<span class="head"> الاسم والشهرة </span><span class="bottom"> أحمد السيد </span>
<span class="head">اسم الأب</span><span class="bottom">محمد</span>
<span class="head">الكلية</span><span class="bottom">كلية الهندسة المدنية</span>
</div>
<div class="panel panel-default">
<div class="panel-heading">السنة الأولى - الفصل الأول</div>
<table class="table"><tbody>
<tr><td>الرياضيات 1</td><td>الدورة الأولى</td><td>80</td><td>ناجح</td><td>2024-02-10</td></tr>
<tr><td>سطر ناقص</td><td>x</td></tr>
<tr><td>الفيزياء 1</td><td>الدورة الأولى</td><td>65</td><td>ناجح</td><td>2024-02-03</td></tr>
</tbody></table>
</div>
<div class="panel panel-default">
<table class="table"><tbody>
<tr><td>البرمجة 1</td><td>الدورة الثانية</td><td>90</td><td>ناجح</td><td>2024-09-01</td></tr>
</tbody></table>
</div>
</body></html>`

const validationErrorPage = `<html><body>
<div class="validation-summary-errors"><ul><li> الرقم الجامعي المدخل غير صحيح </li></ul></div>
</body></html>`

const emptyResultPage = `<html><body><div class="container"></div></body></html>`

func newTestClient(t *testing.T, landingHits *atomic.Int64, resultBody func(universityID string) string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			landingHits.Add(1)
			w.Write([]byte(landingPage))
		case "/result":
			require.NoError(t, r.ParseForm())
			require.Equal(t, "token-abc", r.FormValue("__RequestVerificationToken"))
			w.Write([]byte(resultBody(r.FormValue("UniversityId"))))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	selectorsFile := filepath.Join(t.TempDir(), "selectors.json5")
	require.NoError(t, os.WriteFile(selectorsFile, []byte(testSelectors), 0644))

	client, err := NewClient(Options{
		BaseURL:       server.URL + "/",
		ResultURL:     server.URL + "/result",
		SelectorsFile: selectorsFile,
	})
	require.NoError(t, err)
	return client
}

func TestFetchCollegesAndToken(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, &hits, func(string) string { return resultPage })
	ctx := context.Background()

	colleges, token, err := client.FetchCollegesAndToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-abc", token)

	// placeholder option with empty value is dropped
	require.Len(t, colleges, 3)
	require.Equal(t, "7", colleges[0].ID)
	require.Equal(t, "👨‍⚕️ كلية الطب البشري", colleges[0].DisplayName)
	require.Equal(t, "🏗️ كلية الهندسة المدنية", colleges[1].DisplayName)
	// no keyword match falls back to the default decoration
	require.Equal(t, "🎓 كلية الحقوق", colleges[2].DisplayName)

	// second call inside the ttl window is served from cache
	again, token2, err := client.FetchCollegesAndToken(ctx)
	require.NoError(t, err)
	require.Equal(t, token, token2)
	require.Equal(t, colleges, again)
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchCollegesAndTokenMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><select id="CollegeId"></select></body></html>`))
	}))
	t.Cleanup(server.Close)

	selectorsFile := filepath.Join(t.TempDir(), "selectors.json5")
	require.NoError(t, os.WriteFile(selectorsFile, []byte(testSelectors), 0644))
	client, err := NewClient(Options{
		BaseURL:       server.URL,
		ResultURL:     server.URL,
		SelectorsFile: selectorsFile,
	})
	require.NoError(t, err)

	_, _, err = client.FetchCollegesAndToken(context.Background())
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindStructural, kind)
}

func TestFetchStudentData(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, &hits, func(string) string { return resultPage })
	ctx := context.Background()

	_, token, err := client.FetchCollegesAndToken(ctx)
	require.NoError(t, err)

	data, err := client.FetchStudentData(ctx, "12", "1234567890", token)
	require.NoError(t, err)

	require.Equal(t, marks.StudentInfo{
		Name:        "أحمد السيد",
		FatherName:  "محمد",
		CollegeName: "كلية الهندسة المدنية",
	}, data.Info)

	// short row dropped, remaining rows in canonical (date, subject)
	// order, heading-less panel got the fallback semester
	require.Equal(t, []marks.MarkRecord{
		{Subject: "الفيزياء 1", Session: "الدورة الأولى", Mark: "65", Status: "ناجح", Date: "2024-02-03", Semester: "السنة الأولى - الفصل الأول"},
		{Subject: "الرياضيات 1", Session: "الدورة الأولى", Mark: "80", Status: "ناجح", Date: "2024-02-10", Semester: "السنة الأولى - الفصل الأول"},
		{Subject: "البرمجة 1", Session: "الدورة الثانية", Mark: "90", Status: "ناجح", Date: "2024-09-01", Semester: "فصل غير محدد"},
	}, data.Marks)
}

func TestFetchStudentDataValidationError(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, &hits, func(universityID string) string {
		if universityID == "999" {
			return validationErrorPage
		}
		return resultPage
	})
	ctx := context.Background()

	_, token, err := client.FetchCollegesAndToken(ctx)
	require.NoError(t, err)

	_, err = client.FetchStudentData(ctx, "12", "999", token)
	require.Error(t, err)

	var perr *PortalError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, KindValidation, perr.Kind)
	// the portal's own wording reaches the user
	require.Equal(t, "الرقم الجامعي المدخل غير صحيح", perr.UserMessage())
}

func TestFetchStudentDataNoData(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, &hits, func(string) string { return emptyResultPage })
	ctx := context.Background()

	_, token, err := client.FetchCollegesAndToken(ctx)
	require.NoError(t, err)

	_, err = client.FetchStudentData(ctx, "12", "55555", token)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindNoData, kind)
}
