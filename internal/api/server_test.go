package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/domain-lists/internal/board"
	"github.com/terra-clan/domain-lists/internal/config"
	"github.com/terra-clan/domain-lists/internal/health"
	"github.com/terra-clan/domain-lists/internal/lists"
	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

const defaultFile = "all_last7days_average_value.json"

// listHost serves a 30 record default list and 404s everything else
func listHost(t *testing.T) *httptest.Server {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(`{"domains":[`)
	for i := 0; i < 30; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"domain":"d%02d.com","domain_type":"5L","auction":%d,"marketplace":0,"brokerage":0,"average_value":%d,"date":"2024-05-01"}`, i, 1000+i, 2000+i)
	}
	sb.WriteString(`]}`)
	body := sb.String()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/"+defaultFile):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, gate board.Gate) (*Server, *board.Hub) {
	t.Helper()

	host := listHost(t)
	loader, err := lists.NewHTTPLoader(host.URL + "/Lists")
	if err != nil {
		t.Fatalf("NewHTTPLoader failed: %v", err)
	}

	res := resolver.New(resolver.DefaultTables())
	opts := []board.PipelineOption{board.WithRadius(2)}
	if gate != nil {
		opts = append(opts, board.WithGate(gate))
	}
	pipeline := board.NewPipeline(res, loader, opts...)

	registry := health.NewRegistry()
	registry.Register("lists", health.CheckerFunc(loader.Ping))

	hub := board.NewHub()
	srv := NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		config.PaginationConfig{Radius: 2, DefaultLimit: 10, MaxLimit: 100},
		pipeline, res, loader, registry, hub,
	)
	return srv, hub
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func get(t *testing.T, srv *Server, target string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", rr.Body.String(), err)
	}
	return rr.Code, env
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	if code, env := get(t, srv, "/health"); code != http.StatusOK || !env.Success {
		t.Errorf("health: expected 200 success, got %d %+v", code, env)
	}
	if code, env := get(t, srv, "/ready"); code != http.StatusOK || !env.Success {
		t.Errorf("ready: expected 200 success, got %d %+v", code, env)
	}

	srv.health.Register("broken", health.CheckerFunc(func(ctx context.Context) error {
		return fmt.Errorf("down")
	}))
	if code, env := get(t, srv, "/ready"); code != http.StatusServiceUnavailable || env.Error == nil || env.Error.Code != "not_ready" {
		t.Errorf("ready: expected 503 not_ready, got %d %+v", code, env)
	}
}

func TestOptions(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	code, env := get(t, srv, "/api/v1/lists/options")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var opts resolver.Options
	if err := json.Unmarshal(env.Data, &opts); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(opts.Types) != 3 || len(opts.Sorts) != 4 || len(opts.Dates) != 4 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Defaults.Limit != 10 {
		t.Errorf("expected configured default limit 10, got %d", opts.Defaults.Limit)
	}
}

func TestResolve(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	q := url.Values{"type": {"5L.coms"}, "sort": {"auction"}, "date": {"today"}}
	code, env := get(t, srv, "/api/v1/lists/resolve?"+q.Encode())
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	var got struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Filename != "5L_today_auction.json" {
		t.Errorf("unexpected filename: %s", got.Filename)
	}
	if !strings.Contains(got.URL, "/Lists/5L_today_auction.json?v=") {
		t.Errorf("unexpected url: %s", got.URL)
	}

	q.Set("sort", "popularity")
	if code, env := get(t, srv, "/api/v1/lists/resolve?"+q.Encode()); code != http.StatusBadRequest || env.Error.Code != "unknown_selection" {
		t.Errorf("expected 400 unknown_selection, got %d %+v", code, env)
	}
}

func TestResolveUnknownSelectionIsLogged(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	q := url.Values{"type": {"7L.coms"}}
	if code, _ := get(t, srv, "/api/v1/lists/resolve?"+q.Encode()); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry["level"] == "ERROR" && entry["msg"] == "filter selection has no mapping" {
			found = true
			if entry["type"] != "7L.coms" {
				t.Errorf("log entry does not name the type: %v", entry)
			}
		}
	}
	if !found {
		t.Errorf("expected an error log for the unknown selection, got:\n%s", buf.String())
	}
}

func TestGetListPages(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	code, env := get(t, srv, "/api/v1/lists?page=2")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", code, env)
	}

	var v models.View
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.State != models.ViewOK {
		t.Fatalf("expected ok state, got %s", v.State)
	}
	if len(v.Rows) != 10 || v.Rows[0].Rank != 11 || v.Rows[0].Domain != "d10.com" {
		t.Errorf("unexpected rows on page 2: %d rows, first %+v", len(v.Rows), v.Rows[0])
	}
	if v.Pagination.Current != 2 || v.Pagination.PageCount != 3 {
		t.Errorf("unexpected pagination: %+v", v.Pagination)
	}

	// Beyond the last page clamps
	_, env = get(t, srv, "/api/v1/lists?page=99&limit=25")
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.Page.CurrentPage != 2 || len(v.Rows) != 5 {
		t.Errorf("expected clamped page 2 with 5 rows, got page %d with %d rows", v.Page.CurrentPage, len(v.Rows))
	}
}

func TestGetListErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  url.Values
		gate   board.Gate
		status int
		code   string
	}{
		{"bad limit", url.Values{"limit": {"zero"}}, nil, http.StatusBadRequest, "validation_error"},
		{"limit above max", url.Values{"limit": {"1000"}}, nil, http.StatusBadRequest, "validation_error"},
		{"bad page", url.Values{"page": {"-1"}}, nil, http.StatusBadRequest, "validation_error"},
		{"unknown type", url.Values{"type": {"7L.coms"}}, nil, http.StatusBadRequest, "unknown_selection"},
		{"missing file", url.Values{"date": {"today"}}, nil, http.StatusBadGateway, "resource_unavailable"},
		{"gated", url.Values{"page": {"2"}}, denyAll{}, http.StatusForbidden, "gated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.gate)
			code, env := get(t, srv, "/api/v1/lists?"+tt.query.Encode())
			if code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, code)
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("expected error code %s, got %+v", tt.code, env.Error)
			}
		})
	}
}

func TestGetListUnavailableCarriesErrorView(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	_, env := get(t, srv, "/api/v1/lists?date=today")

	var v models.View
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if v.State != models.ViewError || v.Retry == nil {
		t.Fatalf("expected error view with retry, got %+v", v)
	}
	if v.Message != "Error loading data: HTTP 404" {
		t.Errorf("unexpected message: %q", v.Message)
	}
	if strings.Contains(v.Message, "?v=") || strings.Contains(v.Message, "/Lists/") {
		t.Errorf("error message leaks the list URL: %q", v.Message)
	}
	if v.Retry.Selection.Date != models.DateToday {
		t.Errorf("retry does not carry the failed selection: %+v", v.Retry)
	}
}

type denyAll struct{}

func (denyAll) Allow(context.Context, models.Invocation) bool { return false }

func dialBoard(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/board/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) BoardEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev BoardEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestBoardWebsocket(t *testing.T) {
	srv, hub := newTestServer(t, nil)
	conn := dialBoard(t, srv)

	ev := readEvent(t, conn)
	if ev.Type != "connected" || ev.Session == "" {
		t.Fatalf("expected connected event, got %+v", ev)
	}
	if hub.Get(ev.Session) == nil {
		t.Error("session not registered with hub")
	}

	ev = readEvent(t, conn)
	if ev.Type != "view" || ev.Seq != 1 || ev.View == nil || ev.View.Page.CurrentPage != 1 {
		t.Fatalf("expected initial view, got %+v", ev)
	}

	if err := conn.WriteJSON(BoardMessage{Type: "page", Page: 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev = readEvent(t, conn)
	if ev.Type != "view" || ev.Seq != 2 || ev.View.Page.CurrentPage != 3 {
		t.Fatalf("expected page 3 view, got %+v", ev)
	}
	if ev.View.Rows[0].Rank != 21 {
		t.Errorf("expected first rank 21, got %d", ev.View.Rows[0].Rank)
	}

	sel := models.FilterSelection{Type: models.TypeAll, Sort: models.SortAverage, Date: models.DateToday}
	if err := conn.WriteJSON(BoardMessage{Type: "apply", Selection: &sel}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev = readEvent(t, conn)
	if ev.Type != "view" || ev.View.State != models.ViewError || ev.View.Retry == nil {
		t.Fatalf("expected error view, got %+v", ev)
	}

	if err := conn.WriteJSON(BoardMessage{Type: "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev = readEvent(t, conn)
	if ev.Type != "error" || ev.Error.Code != "invalid_message" {
		t.Errorf("expected invalid_message error, got %+v", ev)
	}
}

func TestBoardWebsocketRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	conn := dialBoard(t, srv)

	readEvent(t, conn) // connected
	readEvent(t, conn) // initial view

	sel := models.FilterSelection{Limit: 1000}
	if err := conn.WriteJSON(BoardMessage{Type: "apply", Selection: &sel}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != "error" || ev.Error.Code != "validation_error" {
		t.Errorf("expected validation_error, got %+v", ev)
	}
}
