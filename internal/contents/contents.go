// Package contents reads lesson listings, lesson documents, and TTS audio from the backend.
package contents

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"mainichinihongo.app/web/internal/backend"
	"mainichinihongo.app/web/internal/datenav"
	"mainichinihongo.app/web/internal/lesson"
)

const (
	// DefaultPageSize is the number of cards on one list page.
	DefaultPageSize = 8
	// DefaultSpeaker is the TTS voice used when none is configured.
	DefaultSpeaker = "7"

	// SortNewest lists the most recent lessons first.
	SortNewest = "최신순"
	// SortOldest lists lessons in registration order.
	SortOldest = "등록일순"

	// ListFailedMessage is shown when the list cannot be loaded.
	ListFailedMessage = "콘텐츠 목록을 불러오는데 실패했습니다."
	// LoadFailedMessage is shown when a lesson cannot be loaded.
	LoadFailedMessage = "콘텐츠를 불러오지 못했습니다."
	// MissingDateMessage is shown when a lesson route has no usable date.
	MissingDateMessage = "날짜 정보가 없습니다."

	pathList   = "/api/contents/list"
	pathLesson = "/api/contents/"
	pathAudio  = "/api/tts/audio"
)

// Levels are the JLPT levels accepted by the list filter.
var Levels = []string{"N1", "N2", "N3", "N4", "N5"}

// Topics are the lesson topics accepted by the list filter.
var Topics = []string{
	"인사말", "자기소개", "가족", "취미", "음식", "여행",
	"쇼핑", "날씨", "건강", "업무 대화", "문법", "한자",
	"관용구", "속담", "축제와 명절", "일상 회화", "비즈니스 일본어",
}

// SortOrders are the accepted sort options, default first.
var SortOrders = []string{SortNewest, SortOldest}

// Backend is the subset of backend.Client used by Service.
type Backend interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	GetText(ctx context.Context, path string, accept string) (string, error)
	Stream(ctx context.Context, path string, query url.Values) (io.ReadCloser, string, error)
}

// Item is one card in the content list.
type Item struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	JLPTLevel string `json:"jlptLevel"`
	Topic     string `json:"topic"`
	CreatedAt string `json:"createdAt"`
}

// DateID returns the compact route identifier derived from CreatedAt.
func (i Item) DateID() string {
	return datenav.FromTimestamp(i.CreatedAt)
}

// ListResponse is one page of list results. First and Last come from the backend as-is.
type ListResponse struct {
	Contents      []Item `json:"contents"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int64  `json:"totalElements"`
	CurrentPage   int    `json:"currentPage"`
	First         bool   `json:"first"`
	Last          bool   `json:"last"`
}

// PageLabel renders the "current / total" pager label.
func (r ListResponse) PageLabel() string {
	return strconv.Itoa(r.CurrentPage+1) + " / " + strconv.Itoa(r.TotalPages)
}

// ListQuery selects one page of the list.
type ListQuery struct {
	Page      int
	Size      int
	JLPTLevel string
	Topic     string
	SortOrder string
}

// Normalize clamps the page, fills defaults, and drops filter values outside the known sets.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	q.JLPTLevel = strings.ToUpper(strings.TrimSpace(q.JLPTLevel))
	if !slices.Contains(Levels, q.JLPTLevel) {
		q.JLPTLevel = ""
	}
	q.Topic = strings.TrimSpace(q.Topic)
	if !slices.Contains(Topics, q.Topic) {
		q.Topic = ""
	}
	q.SortOrder = strings.TrimSpace(q.SortOrder)
	if !slices.Contains(SortOrders, q.SortOrder) {
		q.SortOrder = SortNewest
	}
	return q
}

// Values encodes q as backend query parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.JLPTLevel != "" {
		v.Set("jlptLevel", q.JLPTLevel)
	}
	if q.Topic != "" {
		v.Set("topic", q.Topic)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

// Service reads content from the backend.
type Service struct {
	backend  Backend
	pageSize int
	speaker  string
}

// Option customises Service.
type Option func(*Service)

// WithPageSize sets the default list page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSpeaker sets the TTS voice.
func WithSpeaker(speaker string) Option {
	return func(s *Service) {
		if strings.TrimSpace(speaker) != "" {
			s.speaker = strings.TrimSpace(speaker)
		}
	}
}

// NewService constructs a Service backed by b.
func NewService(b Backend, opts ...Option) *Service {
	s := &Service{backend: b, pageSize: DefaultPageSize, speaker: DefaultSpeaker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize returns the configured default page size.
func (s *Service) PageSize() int { return s.pageSize }

// List fetches one page of the content list.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResponse, error) {
	if q.Size <= 0 {
		q.Size = s.pageSize
	}
	q = q.Normalize()

	var out ListResponse
	if err := s.backend.GetJSON(ctx, pathList, q.Values(), &out); err != nil {
		return ListResponse{}, fmt.Errorf("contents: list: %w", err)
	}
	if out.Contents == nil {
		out.Contents = []Item{}
	}
	return out, nil
}

// Lesson fetches and extracts the lesson for a date identifier.
func (s *Service) Lesson(ctx context.Context, date string) (lesson.Lesson, error) {
	if _, ok := datenav.Parse(date); !ok {
		return lesson.Lesson{}, backend.NewValidationError(MissingDateMessage)
	}
	body, err := s.backend.GetText(ctx, pathLesson+url.PathEscape(date), "text/html")
	if err != nil {
		return lesson.Lesson{}, fmt.Errorf("contents: lesson %s: %w", date, err)
	}
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return lesson.Lesson{}, backend.NewMalformedError(lesson.ErrInvalidContent)
	}
	if strings.HasPrefix(trimmed, "{") {
		l, err := lesson.FromJSON([]byte(trimmed))
		if err != nil {
			return lesson.Lesson{}, backend.NewMalformedError(err)
		}
		return l, nil
	}
	return lesson.Extract(body), nil
}

// OpenAudio streams synthesized speech for text. The caller closes the reader.
func (s *Service) OpenAudio(ctx context.Context, text string) (io.ReadCloser, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", backend.NewValidationError("text is required")
	}
	q := url.Values{}
	q.Set("text", text)
	q.Set("speaker", s.speaker)
	rc, contentType, err := s.backend.Stream(ctx, pathAudio, q)
	if err != nil {
		return nil, "", fmt.Errorf("contents: tts audio: %w", err)
	}
	return rc, contentType, nil
}

// LessonFailureMessage maps a Lesson error to the text shown on the detail page.
func LessonFailureMessage(err error) string {
	switch {
	case backend.IsKind(err, backend.KindMalformed):
		return backend.MessageMalformed
	case backend.IsKind(err, backend.KindValidation):
		return backend.UserMessage(err, MissingDateMessage)
	default:
		return LoadFailedMessage
	}
}
