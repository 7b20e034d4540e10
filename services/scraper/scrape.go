package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stdmark-backend/lib/htmlutil"
	"stdmark-backend/lib/marks"
	"stdmark-backend/lib/textutil"
	"stdmark-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/scraper")

// ordered decoration table for college button labels, first
// containing keyword wins
var collegeEmojis = []struct {
	keyword string
	emoji   string
}{
	{"البشري", "👨‍⚕️"},
	{"الصيدلة", "💊"},
	{"الأسنان", "🦷"},
	{"الآداب", "📚"},
	{"المدنية", "🏗️"},
	{"المعمارية", "🏛️"},
	{"الزراعي", "🧑‍🌾"},
	{"البيطري", "🐾"},
	{"العلوم", "🔬"},
	{"التربية", "🧑‍🏫"},
	{"الاقتصاد", "📈"},
	{"الرياضية", "🏁"},
	{"الميكانيك", "⚙️"},
	{"حاسوب", "🖥️"},
}

const defaultCollegeEmoji = "🎓"

// nodeText extracts and cleans the text of the first matched node.
func nodeText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	return textutil.CleanText(htmlutil.GetText(sel.Nodes[0]))
}

func decorateCollegeName(name string) string {
	for _, entry := range collegeEmojis {
		if strings.Contains(name, entry.keyword) {
			return entry.emoji + " " + name
		}
	}
	return defaultCollegeEmoji + " " + name
}

// FetchCollegesAndToken loads the portal landing page and extracts
// the college dropdown along with a fresh anti-forgery token. The
// result is cached in a single slot for the configured ttl,
// concurrent callers inside the window share one network call.
//
// Any failure here means "portal unreachable", never "no colleges
// exist".
func (c *Client) FetchCollegesAndToken(ctx context.Context) ([]CollegeOption, string, error) {
	ctx, span := tracer.Start(ctx, "FetchCollegesAndToken")
	defer span.End()

	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	if c.cache.token != "" && timezone.Now().Before(c.cache.expiresAt) {
		span.AddEvent("college cache hit")
		return c.cache.colleges, c.cache.token, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch landing page")
		slog.ErrorContext(ctx, "failed to fetch colleges and token", "err", err)
		return nil, "", &PortalError{Kind: KindNetwork, Message: "failed to fetch landing page", Err: err}
	}
	if res.IsError() {
		err := &PortalError{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("landing page returned status %d", res.StatusCode()),
		}
		span.SetStatus(codes.Error, err.Message)
		slog.ErrorContext(ctx, "failed to fetch colleges and token", "err", err)
		return nil, "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse landing page")
		return nil, "", &PortalError{Kind: KindStructural, Message: "failed to parse landing page", Err: err}
	}

	token := doc.Find(c.selectors.RequestVerificationToken).AttrOr("value", "")
	if token == "" {
		err := &PortalError{Kind: KindStructural, Message: "anti-forgery token input not found"}
		span.SetStatus(codes.Error, err.Message)
		slog.ErrorContext(ctx, "failed to fetch colleges and token", "err", err)
		return nil, "", err
	}

	dropdown := doc.Find(c.selectors.CollegeSelectDropdown).First()
	if dropdown.Length() == 0 {
		err := &PortalError{Kind: KindStructural, Message: "college dropdown not found"}
		span.SetStatus(codes.Error, err.Message)
		slog.ErrorContext(ctx, "failed to fetch colleges and token", "err", err)
		return nil, "", err
	}

	var colleges []CollegeOption
	dropdown.Find(c.selectors.CollegeOption).Each(func(_ int, opt *goquery.Selection) {
		value := opt.AttrOr("value", "")
		if value == "" {
			return
		}
		colleges = append(colleges, CollegeOption{
			ID:          value,
			DisplayName: decorateCollegeName(nodeText(opt)),
		})
	})

	c.cache.colleges = colleges
	c.cache.token = token
	c.cache.expiresAt = timezone.Now().Add(c.cacheTTL)

	slog.DebugContext(ctx, "refreshed college cache", "colleges", len(colleges))
	return colleges, token, nil
}

// FetchStudentData posts a result lookup and extracts the student
// info card plus every mark row. The token must come from a
// FetchCollegesAndToken call of the same client, the portal rejects
// stale tokens. University id validity is the caller's concern.
//
// On success the returned marks are sorted canonically so snapshots
// diff and hash consistently across fetches.
func (c *Client) FetchStudentData(ctx context.Context, collegeID, universityID, token string) (StudentData, error) {
	ctx, span := tracer.Start(ctx, "FetchStudentData")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"UniversityId":               universityID,
			"CollegeId":                  collegeID,
			"__RequestVerificationToken": token,
			"Year":                       "",
		}).
		Post(c.resultURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result lookup request failed")
		return StudentData{}, &PortalError{Kind: KindNetwork, Message: "result lookup request failed", Err: err}
	}
	if res.IsError() {
		err := &PortalError{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("result lookup returned status %d", res.StatusCode()),
		}
		span.SetStatus(codes.Error, err.Message)
		return StudentData{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse result page")
		return StudentData{}, &PortalError{Kind: KindStructural, Message: "failed to parse result page", Err: err}
	}

	if errDiv := doc.Find(c.selectors.ValidationErrorSummary).First(); errDiv.Length() > 0 {
		message := nodeText(errDiv)
		span.SetStatus(codes.Error, "portal rejected the lookup")
		return StudentData{}, &PortalError{Kind: KindValidation, Message: message}
	}

	info := c.parseStudentInfo(doc)
	records := c.parseMarks(doc)

	if info == (marks.StudentInfo{}) && len(records) == 0 {
		err := &PortalError{Kind: KindNoData, Message: "neither student info nor marks found"}
		span.SetStatus(codes.Error, err.Message)
		return StudentData{}, err
	}

	marks.SortCanonical(records)
	return StudentData{Info: info, Marks: records}, nil
}

// parseStudentInfo pairs adjacent label/value spans inside the info
// card and classifies them by label substring. A missing card is
// fine, some colleges never render one.
func (c *Client) parseStudentInfo(doc *goquery.Document) marks.StudentInfo {
	var info marks.StudentInfo

	card := doc.Find(c.selectors.StudentInfoCard).First()
	if card.Length() == 0 {
		return info
	}

	spans := card.Find(c.selectors.InfoKeySpan + ", " + c.selectors.InfoValueSpan)
	i := 0
	for i < spans.Length()-1 {
		key := spans.Eq(i)
		value := spans.Eq(i + 1)
		if !key.Is(c.selectors.InfoKeySpan) || !value.Is(c.selectors.InfoValueSpan) {
			i++
			continue
		}

		keyText := nodeText(key)
		valueText := nodeText(value)
		switch {
		case strings.Contains(keyText, "الاسم") && !strings.Contains(keyText, "الأب"):
			info.Name = valueText
		case strings.Contains(keyText, "اسم الأب"):
			info.FatherName = valueText
		case strings.Contains(keyText, "الكلية"):
			info.CollegeName = valueText
		}
		i += 2
	}

	return info
}

// parseMarks walks the result panels, each contributes a semester
// heading and zero or more table rows. Rows with fewer than 5 cells
// are dropped without failing the fetch, minor row corruption should
// not abort a whole extraction.
func (c *Client) parseMarks(doc *goquery.Document) []marks.MarkRecord {
	var all []marks.MarkRecord

	doc.Find(c.selectors.ResultPanels).Each(func(_ int, panel *goquery.Selection) {
		heading := nodeText(panel.Find(c.selectors.PanelHeading).First())
		if heading == "" {
			heading = "فصل غير محدد"
		}

		panel.Find(c.selectors.ResultsTable).First().
			Find(c.selectors.TableBody).First().
			Find(c.selectors.TableRow).
			Each(func(_ int, row *goquery.Selection) {
				var cols []string
				row.Find(c.selectors.TableCell).Each(func(_ int, cell *goquery.Selection) {
					cols = append(cols, nodeText(cell))
				})
				if len(cols) < 5 {
					return
				}
				all = append(all, marks.MarkRecord{
					Subject:  cols[0],
					Session:  cols[1],
					Mark:     cols[2],
					Status:   cols[3],
					Date:     cols[4],
					Semester: heading,
				})
			})
	})

	return all
}
