package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moim-labs/placerec/internal/llm"
	"github.com/moim-labs/placerec/internal/recommend"
	"github.com/moim-labs/placerec/internal/store"
)

type fakeResolver struct {
	cats    llm.Categories
	catsErr error
	loc     *llm.Location
	locErr  error
}

func (r *fakeResolver) ExtractQueryCategories(ctx context.Context, query string) (llm.Categories, error) {
	return r.cats, r.catsErr
}

func (r *fakeResolver) ExtractQueryLocation(ctx context.Context, query string) (*llm.Location, error) {
	return r.loc, r.locErr
}

type fakeScorer struct {
	result recommend.Result
	err    error

	gotK   int
	gotGeo *recommend.GeoFilter
}

func (s *fakeScorer) Recommend(ctx context.Context, query llm.Categories, k int, geo *recommend.GeoFilter) (recommend.Result, error) {
	s.gotK = k
	s.gotGeo = geo
	if s.err != nil {
		return recommend.Result{}, s.err
	}
	res := s.result
	res.Query = query
	return res, nil
}

func strPtr(s string) *string { return &s }

func newTestHandler(resolver QueryResolver, scorer RecommendService) *RecommendHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecommendHandler(resolver, scorer, nil, nil, 10, logger)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRecommend_ReturnsRankedItems(t *testing.T) {
	resolver := &fakeResolver{cats: llm.Categories{Menu: strPtr("카페")}}
	scorer := &fakeScorer{result: recommend.Result{
		Places: []store.Place{
			{ID: 2, Name: "별빛카페"},
			{ID: 1, Name: "골목다방"},
		},
		Scores: map[int64]float64{2: 1.3, 1: 0.9},
	}}
	h := newTestHandler(resolver, scorer)

	rec := postJSON(t, h.Recommend, map[string]any{"query": "조용한 카페", "limit": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Items []struct {
			ID    int64   `json:"id"`
			Name  string  `json:"name"`
			Score float64 `json:"score"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].ID != 2 || resp.Items[0].Score != 1.3 {
		t.Errorf("unexpected first item: %+v", resp.Items[0])
	}
	if scorer.gotK != 5 {
		t.Errorf("expected k=5 passed to scorer, got %d", scorer.gotK)
	}
}

func TestRecommend_EmptyResultIsOK(t *testing.T) {
	h := newTestHandler(&fakeResolver{}, &fakeScorer{})

	rec := postJSON(t, h.Recommend, map[string]any{"query": "추천해줘"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("expected no items, got %d", len(resp.Items))
	}
}

func TestRecommend_ExtractionFailureIs502(t *testing.T) {
	resolver := &fakeResolver{catsErr: llm.ErrExtraction}
	h := newTestHandler(resolver, &fakeScorer{})

	rec := postJSON(t, h.Recommend, map[string]any{"query": "조용한 카페"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "EXTRACTION_ERROR" {
		t.Errorf("expected EXTRACTION_ERROR, got %q", code)
	}
}

func TestRecommend_ScorerFailureIs502(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("embedding provider down")}
	h := newTestHandler(&fakeResolver{cats: llm.Categories{Menu: strPtr("카페")}}, scorer)

	rec := postJSON(t, h.Recommend, map[string]any{"query": "조용한 카페"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "RECOMMENDATION_ERROR" {
		t.Errorf("expected RECOMMENDATION_ERROR, got %q", code)
	}
}

func TestRecommend_Validation(t *testing.T) {
	h := newTestHandler(&fakeResolver{}, &fakeScorer{})

	rec := postJSON(t, h.Recommend, map[string]any{"query": ""})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty query: expected 422, got %d", rec.Code)
	}

	rec = postJSON(t, h.Recommend, map[string]any{"query": "카페", "limit": 50})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("oversized limit: expected 422, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.Recommend(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", w.Code)
	}
}

func TestRecommend_ExplicitCoordinatesWinOverExtraction(t *testing.T) {
	resolver := &fakeResolver{
		cats: llm.Categories{Menu: strPtr("카페")},
		loc:  &llm.Location{Latitude: 1, Longitude: 1},
	}
	scorer := &fakeScorer{}
	h := newTestHandler(resolver, scorer)

	rec := postJSON(t, h.Recommend, map[string]any{
		"query":     "홍대 조용한 카페",
		"latitude":  37.5563,
		"longitude": 126.9239,
		"radius_km": 3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if scorer.gotGeo == nil {
		t.Fatal("expected a geo filter")
	}
	if *scorer.gotGeo.Latitude != 37.5563 || scorer.gotGeo.RadiusKm != 3 {
		t.Errorf("explicit coordinates must be used: %+v", scorer.gotGeo)
	}
}

func TestRecommend_ExtractedLocationUsedWhenNoCoordinates(t *testing.T) {
	resolver := &fakeResolver{
		cats: llm.Categories{Menu: strPtr("카페")},
		loc:  &llm.Location{Latitude: 37.4979, Longitude: 127.0276},
	}
	scorer := &fakeScorer{}
	h := newTestHandler(resolver, scorer)

	rec := postJSON(t, h.Recommend, map[string]any{"query": "강남 카페"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if scorer.gotGeo == nil {
		t.Fatal("expected a geo filter from the extracted location")
	}
	if *scorer.gotGeo.Latitude != 37.4979 {
		t.Errorf("unexpected filter center: %+v", scorer.gotGeo)
	}
}

func TestRecommend_LocationFailureDisablesFilter(t *testing.T) {
	resolver := &fakeResolver{
		cats:   llm.Categories{Menu: strPtr("카페")},
		locErr: errors.New("model timeout"),
	}
	scorer := &fakeScorer{}
	h := newTestHandler(resolver, scorer)

	rec := postJSON(t, h.Recommend, map[string]any{"query": "카페"})
	if rec.Code != http.StatusOK {
		t.Fatalf("location failure must not fail the request, got %d", rec.Code)
	}
	if scorer.gotGeo != nil {
		t.Errorf("expected no geo filter, got %+v", scorer.gotGeo)
	}
}

func TestRecommendForIntegration_Shape(t *testing.T) {
	resolver := &fakeResolver{cats: llm.Categories{Companion: strPtr("친구")}}
	scorer := &fakeScorer{result: recommend.Result{
		Places: []store.Place{
			{ID: 42, Name: "국밥집", Category: "한식", Address: "서울 마포구", Latitude: 37.55, Longitude: 126.92},
		},
		Scores: map[int64]float64{42: 1.4},
	}}
	h := newTestHandler(resolver, scorer)

	promiseID := int64(7)
	rec := postJSON(t, h.RecommendForIntegration, map[string]any{
		"query":      "친구랑 국밥",
		"promise_id": promiseID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		PromiseID       *int64 `json:"promise_id"`
		Recommendations []struct {
			PlaceID string  `json:"place_id"`
			AIScore float64 `json:"ai_score"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.PromiseID == nil || *resp.PromiseID != 7 {
		t.Errorf("promise_id must be echoed back, got %v", resp.PromiseID)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(resp.Recommendations))
	}
	if resp.Recommendations[0].PlaceID != "42" {
		t.Errorf("place_id must be a string, got %q", resp.Recommendations[0].PlaceID)
	}
	// Raw 1.4 of a possible 2.8 is 50 on the absolute scale.
	if resp.Recommendations[0].AIScore != 50 {
		t.Errorf("expected ai_score 50, got %v", resp.Recommendations[0].AIScore)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return resp.Error.Code
}
