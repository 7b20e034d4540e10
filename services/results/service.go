// Package results is the orchestration layer between user input and
// the scraping pipeline: registration, browsing sessions, manual
// checks.
package results

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"stdmark-backend/lib/browse"
	"stdmark-backend/lib/marks"
	"stdmark-backend/lib/ratelimit"
	"stdmark-backend/services/scraper"
	"stdmark-backend/services/userstore"
	"stdmark-backend/services/watcher"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("services/results")

var ErrNotRegistered = errors.New("user has no saved registration")

var ErrInvalidUniversityID = errors.New("university id must be exactly 10 digits")

// RateLimitedError carries how long the caller has to wait before the
// action is allowed again.
type RateLimitedError struct {
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.Remaining.Round(time.Second))
}

var universityIDPattern = regexp.MustCompile(`^\d{10}$`)

const checkNowAction = "check_now"

type Options struct {
	PageSize int `json:"page_size"`
	// cooldown for manual "check now" requests, defaults to a minute
	CheckCooldownSeconds int `json:"check_cooldown_seconds"`
}

type Service struct {
	store    *userstore.Store
	portal   watcher.Portal
	watcher  *watcher.Watcher
	limiter  *ratelimit.Limiter
	pageSize int
}

func NewService(store *userstore.Store, portal watcher.Portal, w *watcher.Watcher, opts Options) *Service {
	cooldown := time.Duration(opts.CheckCooldownSeconds) * time.Second
	if opts.CheckCooldownSeconds <= 0 {
		cooldown = time.Minute
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = browse.DefaultPageSize
	}
	return &Service{
		store:    store,
		portal:   portal,
		watcher:  w,
		limiter:  ratelimit.NewLimiter(cooldown),
		pageSize: pageSize,
	}
}

// Colleges returns the current dropdown, decorated for display.
func (s *Service) Colleges(ctx context.Context) ([]scraper.CollegeOption, error) {
	colleges, _, err := s.portal.FetchCollegesAndToken(ctx)
	return colleges, err
}

// Register performs a first lookup for the user, persists the
// registration plus the fetched snapshot and opens a browsing
// session over it.
func (s *Service) Register(ctx context.Context, userID int64, collegeID, universityID string) (*browse.Session, error) {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", userID))

	if !universityIDPattern.MatchString(universityID) {
		return nil, ErrInvalidUniversityID
	}

	data, err := s.lookup(ctx, collegeID, universityID)
	if err != nil {
		return nil, err
	}

	err = s.store.SaveRegistration(ctx, userID, collegeID, universityID, data.Info)
	if err != nil {
		return nil, err
	}
	err = s.store.UpdateMarks(ctx, userID, data.Marks)
	if err != nil {
		return nil, err
	}

	return browse.NewSession(data.Info, universityID, data.Marks, s.pageSize), nil
}

// FetchLive looks up any (college, id) pair without touching stored
// state, the one-off search path.
func (s *Service) FetchLive(ctx context.Context, collegeID, universityID string) (*browse.Session, error) {
	ctx, span := tracer.Start(ctx, "FetchLive")
	defer span.End()

	if !universityIDPattern.MatchString(universityID) {
		return nil, ErrInvalidUniversityID
	}

	data, err := s.lookup(ctx, collegeID, universityID)
	if err != nil {
		return nil, err
	}
	return browse.NewSession(data.Info, universityID, data.Marks, s.pageSize), nil
}

// OpenSaved opens a browsing session over the user's persisted
// snapshot, no network involved.
func (s *Service) OpenSaved(ctx context.Context, userID int64) (*browse.Session, error) {
	user, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.UniversityID == "" {
		return nil, ErrNotRegistered
	}
	return browse.NewSession(
		userstore.InfoOf(ctx, user),
		user.UniversityID,
		userstore.MarksOf(ctx, user),
		s.pageSize,
	), nil
}

// CheckNow runs the watcher's fetch-diff-notify step for one user on
// demand, behind a per-user cooldown.
func (s *Service) CheckNow(ctx context.Context, userID int64) ([]marks.MarkRecord, error) {
	ctx, span := tracer.Start(ctx, "CheckNow")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", userID))

	ok, remaining := s.limiter.Allow(userID, checkNowAction)
	if !ok {
		return nil, &RateLimitedError{Remaining: remaining}
	}

	user, err := s.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.UniversityID == "" {
		return nil, ErrNotRegistered
	}

	_, token, err := s.portal.FetchCollegesAndToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.watcher.CheckUser(ctx, user, token)
}

func (s *Service) lookup(ctx context.Context, collegeID, universityID string) (scraper.StudentData, error) {
	_, token, err := s.portal.FetchCollegesAndToken(ctx)
	if err != nil {
		return scraper.StudentData{}, err
	}
	return s.portal.FetchStudentData(ctx, collegeID, universityID, token)
}
