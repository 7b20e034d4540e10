package scraper

import (
	"sync"
	"time"

	"stdmark-backend/lib/marks"
	"stdmark-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

type Options struct {
	// landing page, serves the college dropdown and the
	// anti-forgery token
	BaseURL string `json:"base_url"`
	// form target for the result lookup
	ResultURL string `json:"result_url"`
	// path to the selector table json5 file
	SelectorsFile  string `json:"selectors_file"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// how long a fetched college list stays valid, the portal's
	// college set changes maybe once a year
	CollegeCacheTTLSeconds int `json:"college_cache_ttl_seconds"`
}

// CollegeOption is one entry of the portal's college dropdown. ID is
// the opaque option value the portal expects back in lookups,
// DisplayName is the label decorated for chat buttons.
type CollegeOption struct {
	ID          string
	DisplayName string
}

// StudentData is the payload of one successful lookup. Marks are
// always in canonical (date, subject) ascending order.
type StudentData struct {
	Info  marks.StudentInfo
	Marks []marks.MarkRecord
}

type collegeCache struct {
	mu        sync.Mutex
	colleges  []CollegeOption
	token     string
	expiresAt time.Time
}

// Client owns the portal connection pool, the selector table and the
// college/token cache. Construct one and share it, there is no
// package-level session state.
type Client struct {
	http      *resty.Client
	selectors Selectors
	baseURL   string
	resultURL string
	cacheTTL  time.Duration

	cache collegeCache
}

func NewClient(opts Options) (*Client, error) {
	selectors, err := LoadSelectors(opts.SelectorsFile)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if opts.TimeoutSeconds <= 0 {
		timeout = time.Second * 20
	}
	cacheTTL := time.Duration(opts.CollegeCacheTTLSeconds) * time.Second
	if opts.CollegeCacheTTLSeconds <= 0 {
		cacheTTL = time.Hour
	}

	client := resty.New()
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("referer", opts.BaseURL)
	client.SetTimeout(timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "scraper/portal")

	return &Client{
		http:      client,
		selectors: selectors,
		baseURL:   opts.BaseURL,
		resultURL: opts.ResultURL,
		cacheTTL:  cacheTTL,
	}, nil
}
