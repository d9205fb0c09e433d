// Package llm extracts structured preference categories from free text using
// an OpenAI chat model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/moim-labs/placerec/internal/store"
)

// ErrExtraction is returned when the extractor call fails or its output cannot
// be parsed into the four-field category shape.
var ErrExtraction = errors.New("category extraction failed")

// Categories holds the preference attributes extracted from a review or a
// recommendation query. Missing fields are nil, never empty strings.
type Categories struct {
	Companion *string `json:"companion"`
	Menu      *string `json:"menu"`
	Mood      *string `json:"mood"`
	Purpose   *string `json:"purpose"`
}

// Value returns the extracted text for a category, or "" if absent.
func (c Categories) Value(cat store.Category) string {
	var v *string
	switch cat {
	case store.CategoryCompanion:
		v = c.Companion
	case store.CategoryMenu:
		v = c.Menu
	case store.CategoryMood:
		v = c.Mood
	case store.CategoryPurpose:
		v = c.Purpose
	}
	if v == nil {
		return ""
	}
	return *v
}

// Empty reports whether no category was extracted.
func (c Categories) Empty() bool {
	for _, cat := range store.Categories() {
		if c.Value(cat) != "" {
			return false
		}
	}
	return true
}

// Location is a point extracted from a query ("홍대에서 ..." → its coordinates).
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Extractor resolves free text into structured categories and locations.
type Extractor interface {
	// ExtractCategories extracts categories from review text.
	ExtractCategories(ctx context.Context, text string) (Categories, error)

	// ExtractQueryCategories extracts categories from a user's recommendation query.
	ExtractQueryCategories(ctx context.Context, query string) (Categories, error)

	// ExtractQueryLocation extracts a location from a query. Returns (nil, nil)
	// when the query names no usable location.
	ExtractQueryLocation(ctx context.Context, query string) (*Location, error)
}

const (
	reviewSystemPrompt = "너는 한국어 리뷰에서 동행자/메뉴/분위기/모임목적 정보를 추출하는 어시스턴트야. " +
		"JSON만 반환하고 값이 없으면 null을 사용해. " +
		"모든 필드는 반드시 문자열(string) 타입이어야 하며, 여러 값이 있으면 쉼표로 구분된 하나의 문자열로 반환해. " +
		"리스트나 배열 형태로 반환하지 마."

	querySystemPrompt = "너는 사용자의 장소 추천 요청에서 동행자/메뉴/분위기/모임목적 정보를 추출하는 어시스턴트야. " +
		"JSON만 반환하고 값이 없으면 null을 사용해. " +
		"모든 필드는 반드시 문자열(string) 타입이어야 하며, 여러 값이 있으면 쉼표로 구분된 하나의 문자열로 반환해. " +
		"리스트나 배열 형태로 반환하지 마."

	locationSystemPrompt = "너는 사용자의 장소 추천 요청에서 위치 정보를 추출하는 어시스턴트야. " +
		"위치 정보가 있으면 JSON으로 반환하고, 없으면 null을 반환해. " +
		"지역명이 있으면 해당 지역의 대표적인 위도(latitude)/경도(longitude)를 반환해줘."
)

// OpenAIExtractor implements Extractor with OpenAI chat completions in JSON mode.
type OpenAIExtractor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAIExtractor creates a new OpenAIExtractor.
func NewOpenAIExtractor(apiKey, model string, timeout time.Duration, logger *slog.Logger) *OpenAIExtractor {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIExtractor{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// complete runs one JSON-mode chat completion and returns the raw content.
func (e *OpenAIExtractor) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ExtractCategories extracts categories from review text.
func (e *OpenAIExtractor) ExtractCategories(ctx context.Context, text string) (Categories, error) {
	user := "리뷰에서 다음 필드를 채워줘:\n" +
		"- companion (동행자: 문자열, 여러 명이면 쉼표로 구분)\n" +
		"- menu (메뉴: 문자열, 여러 메뉴면 쉼표로 구분, 예: '볶음우동, 치킨가라야케')\n" +
		"- mood (분위기: 문자열)\n" +
		"- purpose (모임 목적: 문자열)\n\n" +
		"중요: 모든 값은 반드시 문자열(string) 타입이어야 합니다. 리스트나 배열을 사용하지 마세요.\n\n" +
		"리뷰: " + text

	content, err := e.complete(ctx, reviewSystemPrompt, user)
	if err != nil {
		return Categories{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return parseCategories(content)
}

// ExtractQueryCategories extracts categories from a recommendation query.
func (e *OpenAIExtractor) ExtractQueryCategories(ctx context.Context, query string) (Categories, error) {
	user := "사용자 요청에서 다음 필드를 추출해줘:\n" +
		"- companion (동행자: 문자열, 예: 친구, 연인, 가족, 혼자 등)\n" +
		"- menu (메뉴: 문자열, 예: 한식, 양식, 카페, 디저트 등)\n" +
		"- mood (분위기: 문자열, 예: 조용한, 시끌벅적한, 로맨틱한, 편안한 등)\n" +
		"- purpose (모임 목적: 문자열, 예: 데이트, 비즈니스, 친목, 회식 등)\n\n" +
		"중요: 모든 값은 반드시 문자열(string) 타입이어야 합니다. 리스트나 배열을 사용하지 마세요.\n\n" +
		"사용자 요청: " + query

	content, err := e.complete(ctx, querySystemPrompt, user)
	if err != nil {
		return Categories{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return parseCategories(content)
}

// ExtractQueryLocation extracts a location from a query. Extraction is
// best-effort: an unusable answer degrades to "no location", not an error,
// since the geo filter is advisory.
func (e *OpenAIExtractor) ExtractQueryLocation(ctx context.Context, query string) (*Location, error) {
	user := "사용자 요청에서 위치 정보를 추출하고, 지역명이면 해당 지역의 위도/경도를 반환해줘:\n" +
		"- latitude (위도: 숫자)\n" +
		"- longitude (경도: 숫자)\n" +
		"- region (지역명: 문자열, 참고용)\n\n" +
		"사용자 요청: " + query + "\n\n" +
		"지역명 예시:\n" +
		"- 홍대: latitude: 37.5563, longitude: 126.9239\n" +
		"- 강남: latitude: 37.4979, longitude: 127.0276\n" +
		"- 신촌: latitude: 37.5551, longitude: 126.9368\n" +
		"- 이태원: latitude: 37.5345, longitude: 126.9947"

	content, err := e.complete(ctx, locationSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	loc := parseLocation(content)
	if loc == nil && e.logger != nil {
		e.logger.Debug("no location extracted from query")
	}
	return loc, nil
}

// parseCategories normalizes the model's JSON answer into Categories. The
// model is told to return strings, but list- and number-shaped values still
// show up and are coerced rather than rejected.
func parseCategories(content string) (Categories, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Categories{}, fmt.Errorf("%w: unparsable response: %v", ErrExtraction, err)
	}

	return Categories{
		Companion: normalizeValue(data["companion"]),
		Menu:      normalizeValue(data["menu"]),
		Mood:      normalizeValue(data["mood"]),
		Purpose:   normalizeValue(data["purpose"]),
	}, nil
}

// normalizeValue coerces a decoded JSON value to a non-empty string or nil.
// Lists become one comma-joined string, numbers are stringified.
func normalizeValue(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		return &s
	case []any:
		var parts []string
		for _, item := range val {
			if p := normalizeValue(item); p != nil {
				parts = append(parts, *p)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		s := strings.Join(parts, ", ")
		return &s
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		return &s
	case bool:
		s := strconv.FormatBool(val)
		return &s
	default:
		return nil
	}
}

// parseLocation pulls latitude/longitude out of the model's JSON answer.
// Anything incomplete or non-numeric yields nil.
func parseLocation(content string) *Location {
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil
	}

	lat, okLat := asFloat(data["latitude"])
	lon, okLon := asFloat(data["longitude"])
	if !okLat || !okLon {
		return nil
	}
	return &Location{Latitude: lat, Longitude: lon}
}

func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
