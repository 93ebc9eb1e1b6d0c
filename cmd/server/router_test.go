package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"propsearch/internal/cache"
	"propsearch/internal/config"
	"propsearch/internal/handler"
	"propsearch/internal/model"
	"propsearch/internal/observability"
	"propsearch/internal/repository"
	"propsearch/internal/service"
)

type emptyStore struct{}

func (emptyStore) SpatialCandidates(context.Context, repository.SpatialQuery) ([]model.RankedProperty, error) {
	return nil, nil
}
func (emptyStore) MentionCandidates(context.Context, repository.MentionQuery) ([]model.Property, error) {
	return nil, nil
}
func (emptyStore) KeywordSearch(context.Context, repository.KeywordQuery) ([]model.Property, error) {
	return nil, nil
}
func (emptyStore) FindStations(context.Context, repository.StationQuery) ([]model.TransportStation, error) {
	return nil, nil
}
func (emptyStore) NearestStationDistance(context.Context, float64, float64, []string) (*float64, error) {
	return nil, nil
}
func (emptyStore) ListTitles(context.Context, string, int) ([]repository.TitleRow, error) {
	return nil, nil
}
func (emptyStore) GetPropertyByID(context.Context, int64) (*model.Property, error) {
	return nil, nil
}

func testRouter(t *testing.T, withMetrics bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	parserCfg := config.ParserConfig{EscalationThreshold: 0.7, LocationThreshold: 0.65, TypeThreshold: 0.6, MaxLengthRatio: 1.5, ModelTimeout: 1}
	searchCfg := config.SearchConfig{DefaultLimit: 20, MaxLimit: 100, GeneralRadius: 1250, StationRadius: 1800, CandidateFactor: 5, BackfillWorkers: 2, DistanceTieRange: 50}

	store := emptyStore{}
	svc := service.NewSearchService(
		store,
		service.NewCorrector(parserCfg),
		service.NewQueryParser(cache.NewMemoryStore(), nil, parserCfg, time.Minute),
		service.NewRanker(searchCfg.DistanceTieRange),
		searchCfg,
	)
	h := handler.NewSearchHandler(svc, service.NewSuggester(store), searchCfg.DefaultLimit, searchCfg.MaxLimit)

	srvCfg := config.ServerConfig{AllowedOrigins: "http://localhost:3000, https://app.example.my", RequestTimeout: 5}
	if withMetrics {
		return newRouter(srvCfg, zerolog.Nop(), h, observability.InitRegistry())
	}
	return newRouter(srvCfg, zerolog.Nop(), h, nil)
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestRouter_Health(t *testing.T) {
	r := testRouter(t, false)

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = get(r, "/version")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"dev"`)
}

func TestRouter_NotFoundAndMetrics(t *testing.T) {
	r := testRouter(t, false)
	w := get(r, "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	r = testRouter(t, true)
	get(r, "/health")
	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "propsearch_http_requests_total")
}

func TestRouter_SearchEndToEnd(t *testing.T) {
	r := testRouter(t, false)

	w := get(r, "/api/v1/search?q=condo+near+MRT+Surian")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"search_type":"specific_station"`)
	assert.Contains(t, w.Body.String(), `"empty_cause":"station_not_found"`)

	w = get(r, "/api/v1/autocomplete?q=b")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitOrigins(" http://a ,http://b,"))
	assert.Equal(t, []string{"*"}, splitOrigins(""))
}
