package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/source"
	"github.com/msto63/chomsky/internal/store"
	coregrpc "github.com/msto63/chomsky/pkg/core/grpc"
	"github.com/msto63/chomsky/pkg/core/health"
)

func newHTTPServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	srv := New(DefaultConfig(), checker.New(checker.Options{}), st)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(store.Config{Path: filepath.Join(t.TempDir(), "chomsky.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_Check(t *testing.T) {
	ts := newHTTPServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/v1/check", `{"sentences":["the dog loves a cat","dog loves a cat"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var got CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Verdicts, 2)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 1, got.Failed)

	assert.True(t, got.Verdicts[0].Accepted)
	assert.Equal(t, "The sentence 'the dog loves a cat' follows the BNF grammar.", got.Verdicts[0].Message)
	assert.True(t, strings.HasPrefix(got.Verdicts[0].Tree, "digraph ParseTree {"))

	assert.False(t, got.Verdicts[1].Accepted)
	assert.Equal(t, "ARTICLE", got.Verdicts[1].Expected)
	assert.Equal(t, "dog", got.Verdicts[1].Found)
	assert.Equal(t, "SYNTAX ERROR: 'ARTICLE' was expected but 'dog' was found.", got.Verdicts[1].Message)
}

func TestHandler_CheckSingleSentenceFirst(t *testing.T) {
	ts := newHTTPServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/v1/check", `{"sentence":"a cat chases the dog","sentences":["the dog"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Verdicts, 2)
	assert.Equal(t, "a cat chases the dog", got.Verdicts[0].Sentence)
	assert.Equal(t, "VERB", got.Verdicts[1].Expected)
	assert.Equal(t, "$$", got.Verdicts[1].Found)
}

func TestHandler_CheckFiltersInput(t *testing.T) {
	ts := newHTTPServer(t, nil)

	resp := postJSON(t, ts.URL+"/api/v1/check", `{"sentences":["","   ","# note","  the dog loves a cat  "]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Verdicts, 1)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 0, got.Failed)
	assert.Equal(t, 1, got.Comments)
	assert.Equal(t, "the dog loves a cat", got.Verdicts[0].Sentence)
	assert.Equal(t, "The sentence 'the dog loves a cat' follows the BNF grammar.", got.Verdicts[0].Message)
}

func TestHandler_CheckRejectsBadRequests(t *testing.T) {
	ts := newHTTPServer(t, nil)

	tests := []struct {
		name   string
		method string
		body   string
		status int
		code   string
	}{
		{"invalid json", http.MethodPost, `{"sentence":`, http.StatusBadRequest, "invalid_request"},
		{"no sentence", http.MethodPost, `{}`, http.StatusBadRequest, "invalid_request"},
		{"blank sentence", http.MethodPost, `{"sentence":"   "}`, http.StatusBadRequest, "invalid_request"},
		{"only blanks and comments", http.MethodPost, `{"sentences":["","\t","# note"]}`, http.StatusBadRequest, "invalid_request"},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed, "method_not_allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+"/api/v1/check", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			var e ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tt.code, e.Code)
		})
	}
}

func TestHandler_Options(t *testing.T) {
	ts := newHTTPServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/check", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestHandler_Lexicon(t *testing.T) {
	ts := newHTTPServer(t, nil)

	resp := getURL(t, ts.URL+"/api/v1/lexicon")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Size  int                 `json:"size"`
		Words map[string][]string `json:"words"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 17, got.Size)
	assert.Equal(t, []string{"a", "the"}, got.Words["ARTICLE"])
	assert.Contains(t, got.Words["VERB"], "loves")
	assert.NotContains(t, got.Words, "EOS")
}

func TestHandler_RootAndNotFound(t *testing.T) {
	ts := newHTTPServer(t, nil)

	resp := getURL(t, ts.URL+"/api/v1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getURL(t, ts.URL+"/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Health(t *testing.T) {
	ts := newHTTPServer(t, newStore(t))

	resp := getURL(t, ts.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report health.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "lexicon", report.Checks[0].Name)
	assert.Equal(t, "17 words", report.Checks[0].Message)
	assert.Equal(t, "store", report.Checks[1].Name)
}

func TestHandler_HealthUnavailable(t *testing.T) {
	st := newStore(t)
	srv := New(DefaultConfig(), checker.New(checker.Options{}), st)
	require.NoError(t, st.Close())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_RunsWithoutStore(t *testing.T) {
	ts := newHTTPServer(t, nil)

	for _, path := range []string{"/api/v1/runs", "/api/v1/runs/x", "/api/v1/stats"} {
		resp := getURL(t, ts.URL+path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestHandler_Runs(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	run, err := st.CreateRun(ctx, "sentences.txt")
	require.NoError(t, err)
	items, err := source.ReadAll("sentences.txt",
		strings.NewReader("# demo\nthe dog loves a cat\ndog loves a cat\n"), source.DefaultCommentPrefix)
	require.NoError(t, err)
	sink := store.NewRunSink(ctx, st, run)
	summary, err := checker.New(checker.Options{}).Run(ctx, items, sink)
	require.NoError(t, err)
	require.NoError(t, sink.Finish(summary))

	ts := newHTTPServer(t, st)

	resp := getURL(t, ts.URL+"/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Runs  []store.Run `json:"runs"`
		Total int         `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, run.ID, list.Runs[0].ID)
	assert.Equal(t, 2, list.Runs[0].Total)

	resp = getURL(t, ts.URL+"/api/v1/runs/"+run.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail RunResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	require.Len(t, detail.Results, 2)
	assert.True(t, detail.Results[0].Accepted)
	assert.Equal(t, "ARTICLE", detail.Results[1].Expected)

	resp = getURL(t, ts.URL+"/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats store.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, store.Stats{Runs: 1, Results: 2, Accepted: 1}, stats)

	resp = getURL(t, ts.URL+"/api/v1/runs/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getURL(t, ts.URL+"/api/v1/runs?limit=0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket(t *testing.T) {
	ts := newHTTPServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	type response struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))
	var pong response
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "check", Payload: json.RawMessage(`{"sentence":"the cat"}`)}))
	var verdict response
	require.NoError(t, conn.ReadJSON(&verdict))
	require.Equal(t, "verdict", verdict.Type)
	var v checker.Verdict
	require.NoError(t, json.Unmarshal(verdict.Payload, &v))
	assert.False(t, v.Accepted)
	assert.Equal(t, "VERB", v.Expected)
	assert.Equal(t, "$$", v.Found)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "check", Payload: json.RawMessage(`{"sentence":"  the cat eats a rat "}`)}))
	var trimmed response
	require.NoError(t, conn.ReadJSON(&trimmed))
	require.Equal(t, "verdict", trimmed.Type)
	require.NoError(t, json.Unmarshal(trimmed.Payload, &v))
	assert.True(t, v.Accepted)
	assert.Equal(t, "the cat eats a rat", v.Sentence)

	for _, payload := range []string{`{}`, `{"sentence":"   "}`, `{"sentence":"# note"}`} {
		require.NoError(t, conn.WriteJSON(WSMessage{Type: "check", Payload: json.RawMessage(payload)}))
		var bad response
		require.NoError(t, conn.ReadJSON(&bad))
		assert.Equal(t, "error", bad.Type, payload)
		var e WSErrorPayload
		require.NoError(t, json.Unmarshal(bad.Payload, &e))
		assert.Equal(t, "invalid_payload", e.Code, payload)
	}

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "shout"}))
	var unknown response
	require.NoError(t, conn.ReadJSON(&unknown))
	assert.Equal(t, "error", unknown.Type)
	assert.Contains(t, string(unknown.Payload), "unknown_type")
}

func startGrammarService(t *testing.T) *Client {
	t.Helper()

	listener := bufconn.Listen(1024 * 1024)
	srv := coregrpc.NewServer(coregrpc.DefaultServerConfig())
	RegisterGrammarServer(srv.GRPCServer(), NewGrammarService(checker.New(checker.Options{}), source.DefaultCommentPrefix))
	go func() { _ = srv.Serve(listener) }()
	t.Cleanup(srv.Stop)

	conn, err := coregrpc.Dial(coregrpc.DefaultClientConfig("passthrough:///bufnet"),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func TestGrammarService_Check(t *testing.T) {
	client := startGrammarService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := client.Check(ctx, "the furry dog loves a cat")
	require.NoError(t, err)
	assert.True(t, v.Accepted)
	assert.Equal(t, "the furry dog loves a cat", v.Sentence)
	assert.Contains(t, v.Tree, `label="<ADJ>"`)

	v, err = client.Check(ctx, "the dog loves a tall tall cat")
	require.NoError(t, err)
	assert.False(t, v.Accepted)
	assert.Equal(t, "NOUN", v.Expected)
	assert.Equal(t, "tall", v.Found)
	assert.Equal(t, "SYNTAX ERROR: 'NOUN' was expected but 'tall' was found.", v.Message)
}

func TestGrammarService_EmptySentence(t *testing.T) {
	client := startGrammarService(t)

	for _, sentence := range []string{"", "   ", "# note"} {
		_, err := client.Check(context.Background(), sentence)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "sentence %q", sentence)
	}
}

func TestGrammarService_TrimsSentence(t *testing.T) {
	client := startGrammarService(t)

	v, err := client.Check(context.Background(), "\tthe dog loves a cat  ")
	require.NoError(t, err)
	assert.True(t, v.Accepted)
	assert.Equal(t, "the dog loves a cat", v.Sentence)
}

func TestServer_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.GRPCPort = freePort(t)
	cfg.HTTPPort = freePort(t)

	srv := New(cfg, checker.New(checker.Options{}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.Host + ":" + strconv.Itoa(cfg.HTTPPort) + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestHandler_VerdictCache(t *testing.T) {
	ts := newHTTPServer(t, nil)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/api/v1/check", `{"sentence":"the dog loves a cat"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := getURL(t, ts.URL+"/api/v1/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var root struct {
		Cache CacheStats `json:"cache"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&root))
	assert.Equal(t, 1, root.Cache.Size)
	assert.Equal(t, int64(2), root.Cache.Hits)
	assert.Equal(t, int64(1), root.Cache.Misses)
}

func TestServer_CacheDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheSize = 0
	srv := New(cfg, checker.New(checker.Options{}), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"cache"`)
}
