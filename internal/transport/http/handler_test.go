package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"orderscope/internal/engine"
	"orderscope/internal/orders"
)

type HandlerSuite struct {
	suite.Suite
	source *orders.MemorySource
	server *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	now := time.Now().UTC()
	s.source = orders.NewMemorySource(50,
		orders.Record{
			"id": "A", "created_at": now.AddDate(0, 0, -10).Format(time.RFC3339),
			"phone":       "+1 (555) 123-4567",
			"customer":    map[string]any{"email": "jo@example.com"},
			"customer_ip": "203.0.113.45",
			"line_items":  []any{map[string]any{"sku": "SKU-W", "title": "Widget"}},
		},
		orders.Record{
			"id": "B", "created_at": now.AddDate(0, 0, -5).Format(time.RFC3339),
			"phone":       "555 123 4567",
			"customer":    map[string]any{"email": "jo@example.com"},
			"customer_ip": "203.0.113.45",
			"line_items":  []any{map[string]any{"sku": "SKU-W", "title": "Widget"}},
		},
	)

	eng, err := engine.New(s.source, engine.WithLogger(logger))
	s.Require().NoError(err)

	s.server = httptest.NewServer(NewRouter(New(eng, logger), logger))
	s.T().Cleanup(s.server.Close)
}

func (s *HandlerSuite) get(path string) (*http.Response, map[string]any) {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

// =============================================================================
// Health
// =============================================================================

func (s *HandlerSuite) TestHealth() {
	resp, body := s.get("/healthz")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
}

func (s *HandlerSuite) TestReady() {
	resp, body := s.get("/readyz")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
}

// =============================================================================
// Detection
// =============================================================================

func (s *HandlerSuite) TestDetect() {
	order := `{"id":"1001","customer":{"default_address":{"client_ip":"203.0.113.45"}}}`
	resp, err := http.Post(s.server.URL+"/v1/detect", "application/json", strings.NewReader(order))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("203.0.113.45", body["final_ip"])
	s.Equal("shopify_direct", body["method_used"])
}

func (s *HandlerSuite) TestDetectRejectsMalformedBody() {
	resp, err := http.Post(s.server.URL+"/v1/detect", "application/json", strings.NewReader("{broken"))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// Duplicates
// =============================================================================

func (s *HandlerSuite) TestDuplicates() {
	resp, body := s.get("/v1/stores/shop-a/duplicates?window_days=30")
	s.Equal(http.StatusOK, resp.StatusCode)

	candidates, ok := body["candidates"].([]any)
	s.Require().True(ok)
	s.Len(candidates, 1)
	s.EqualValues(2, body["orders_scanned"])
}

func (s *HandlerSuite) TestDuplicatesWindowTooLarge() {
	resp, body := s.get("/v1/stores/shop-a/duplicates?window_days=91")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("invalid_input", body["error"])
}

func (s *HandlerSuite) TestDuplicatesBadWindowParam() {
	resp, _ := s.get("/v1/stores/shop-a/duplicates?window_days=soon")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// IP Groups
// =============================================================================

func (s *HandlerSuite) TestIPGroups() {
	resp, body := s.get("/v1/stores/shop-a/ip-groups?window_days=30&min_orders=2")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.EqualValues(1, body["count"])

	groups, ok := body["groups"].([]any)
	s.Require().True(ok)
	group := groups[0].(map[string]any)
	s.Equal("203.0.113.45", group["ip"])
	s.EqualValues(2, group["order_count"])
}

// =============================================================================
// Orders + Cache
// =============================================================================

func (s *HandlerSuite) TestGetOrder() {
	resp, body := s.get("/v1/stores/shop-a/orders/A")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("A", body["id"])
}

func (s *HandlerSuite) TestGetOrderNotFound() {
	resp, body := s.get("/v1/stores/shop-a/orders/nope")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("not_found", body["error"])
}

func (s *HandlerSuite) TestInvalidateCache() {
	// Populate the search cache first.
	_, _ = s.get("/v1/stores/shop-a/duplicates?window_days=30")

	req, err := http.NewRequest(http.MethodDelete, s.server.URL+"/v1/stores/shop-a/cache", nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	var body map[string]int
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(1, body["removed"])
}

// =============================================================================
// Runs
// =============================================================================

func (s *HandlerSuite) TestRecentRuns() {
	_, _ = s.get("/v1/stores/shop-a/duplicates?window_days=30")

	resp, body := s.get("/v1/runs?limit=5")
	s.Equal(http.StatusOK, resp.StatusCode)

	runs, ok := body["runs"].([]any)
	s.Require().True(ok)
	s.Require().Len(runs, 1)
	run := runs[0].(map[string]any)
	s.Equal("detect_duplicates", run["operation"])
}
