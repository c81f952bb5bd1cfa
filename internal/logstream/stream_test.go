package logstream_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"infinity/internal/domain"
	"infinity/internal/logstream"
)

// fakeServer accepts one subscription, plays frames back and reports every
// client frame once the client goes away.
type fakeServer struct {
	protocols []string
	frames    []string
	received  chan []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{Subprotocols: f.protocols}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var got []string
	for i := 0; i < 2; i++ {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			f.received <- got
			return
		}
		got = append(got, string(raw))
	}
	for _, frame := range f.frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			break
		}
	}
	// anything else the client sends before closing is recorded too
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		got = append(got, string(raw))
	}
	f.received <- got
}

func startServer(t *testing.T, f *fakeServer) string {
	t.Helper()
	f.received = make(chan []string, 1)
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv.URL + "/graphql"
}

const logsFrame = `{"id":"1","type":"%s","payload":{"data":{"pipelineRunLogs":{"messages":[
	{"level":"INFO","timestamp":"1700000000000","text":"step started"},
	{"level":"ERROR","timestamp":"1700000000500","text":"step failed"}]}}}}`

func frame(kind string) string { return strings.Replace(logsFrame, "%s", kind, 1) }

func TestSubscribeOverTransportWS(t *testing.T) {
	f := &fakeServer{
		protocols: []string{logstream.ProtocolTransportWS},
		frames:    []string{`{"type":"connection_ack"}`, `not json`, `{"type":"mystery"}`, frame("next"), `{"id":"1","type":"complete"}`},
	}
	url := startServer(t, f)
	s := logstream.New(logstream.Options{GraphQLURL: url, Metrics: logstream.NewMetrics(prometheus.NewRegistry())})
	t.Cleanup(func() { s.Stop() })

	st, err := s.Start(context.Background(), "run-42")
	require.NoError(t, err)
	assert.Equal(t, logstream.StateStreaming, st.State)
	assert.Equal(t, logstream.ProtocolTransportWS, st.Protocol)

	require.Eventually(t, func() bool { return s.Status().State == logstream.StateClosed }, 2*time.Second, 10*time.Millisecond)
	logs := s.Status().Logs
	assert.Equal(t, []domain.LogMessage{
		{Level: "INFO", Timestamp: "1700000000000", Text: "step started"},
		{Level: "ERROR", Timestamp: "1700000000500", Text: "step failed"},
	}, logs)
	assert.Empty(t, s.Status().LastError)

	got := <-f.received
	require.Len(t, got, 2, "connection_init plus exactly one initiation message")
	assert.Equal(t, "connection_init", gjson.Get(got[0], "type").String())
	assert.Equal(t, "subscribe", gjson.Get(got[1], "type").String())
	assert.Equal(t, "1", gjson.Get(got[1], "id").String())
	assert.Equal(t, "run-42", gjson.Get(got[1], "payload.variables.runId").String())
	assert.Contains(t, gjson.Get(got[1], "payload.query").String(), "pipelineRunLogs")
}

func TestSubscribeOverLegacyProtocol(t *testing.T) {
	for _, protocols := range [][]string{{logstream.ProtocolGraphQLWS}, nil} {
		f := &fakeServer{protocols: protocols, frames: []string{frame("data"), `{"id":"1","type":"error","payload":{"message":"denied"}}`}}
		url := startServer(t, f)
		s := logstream.New(logstream.Options{GraphQLURL: url})

		_, err := s.Start(context.Background(), "run-1")
		require.NoError(t, err)
		require.Eventually(t, func() bool { return s.Status().LastError != "" }, 2*time.Second, 10*time.Millisecond)
		assert.JSONEq(t, `{"message":"denied"}`, s.Status().LastError)
		assert.Len(t, s.Status().Logs, 2)

		st := s.Stop()
		assert.Equal(t, logstream.StateClosed, st.State)
		assert.JSONEq(t, `{"message":"denied"}`, st.LastError)

		got := <-f.received
		require.Len(t, got, 2)
		assert.Equal(t, "start", gjson.Get(got[1], "type").String())
	}
}

func TestDialFailureFallsBackToPolling(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	var polls atomic.Int32
	s := logstream.New(logstream.Options{
		GraphQLURL:   "http://" + addr + "/graphql",
		PollInterval: 10 * time.Millisecond,
		Poll: func(ctx context.Context) error {
			polls.Add(1)
			return nil
		},
	})

	st, err := s.Start(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, logstream.StatePolling, st.State)
	assert.Equal(t, logstream.MsgPollingFallback, st.LastError)
	require.Eventually(t, func() bool { return polls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	after := polls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, polls.Load(), "poller stops with the stream")
	assert.Equal(t, logstream.StateClosed, s.Status().State)
}

func TestUnusableURLFallsBackToPolling(t *testing.T) {
	for _, graphqlURL := range []string{"ftp://dagster.local/graphql", "/graphql"} {
		s := logstream.New(logstream.Options{GraphQLURL: graphqlURL, PollInterval: time.Hour})

		st, err := s.Start(context.Background(), "r3")
		require.NoError(t, err, graphqlURL)
		assert.Equal(t, logstream.StatePolling, st.State, graphqlURL)
		assert.Equal(t, logstream.MsgPollingFallback, st.LastError)
		assert.Equal(t, "r3", st.RunID)

		assert.Equal(t, logstream.StateClosed, s.Stop().State)
	}
}

func TestRestartClosesPreviousSocketAndClearsLogs(t *testing.T) {
	f := &fakeServer{protocols: []string{logstream.ProtocolTransportWS}, frames: []string{frame("next")}}
	url := startServer(t, f)
	f.received = make(chan []string, 2)
	s := logstream.New(logstream.Options{GraphQLURL: url})
	t.Cleanup(func() { s.Stop() })

	_, err := s.Start(context.Background(), "run-a")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(s.Status().Logs) == 2 }, 2*time.Second, 10*time.Millisecond)

	st, err := s.Start(context.Background(), "run-b")
	require.NoError(t, err)
	assert.Equal(t, "run-b", st.RunID)
	assert.Equal(t, logstream.StateStreaming, st.State)
	assert.Empty(t, st.Logs)

	select {
	case got := <-f.received:
		require.Len(t, got, 2)
		assert.Equal(t, "run-a", gjson.Get(got[1], "payload.variables.runId").String())
	case <-time.After(2 * time.Second):
		t.Fatal("first socket was not closed")
	}
}

func TestStartWithEmptyRunIsIdle(t *testing.T) {
	s := logstream.New(logstream.Options{GraphQLURL: "/graphql"})
	st, err := s.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, logstream.StateIdle, st.State)
	assert.Empty(t, st.Logs)
}

func TestWebSocketURL(t *testing.T) {
	cases := []struct{ in, base, want string }{
		{"http://localhost:3000/graphql", "", "ws://localhost:3000/graphql"},
		{"https://dagster.example.com/graphql", "", "wss://dagster.example.com/graphql"},
		{"/graphql", "http://localhost:3000", "ws://localhost:3000/graphql"},
		{"/graphql", "https://ui.example.com/app/", "wss://ui.example.com/graphql"},
	}
	for _, tc := range cases {
		got, err := logstream.WebSocketURL(tc.in, tc.base)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
	_, err := logstream.WebSocketURL("/graphql", "")
	assert.Error(t, err)
	_, err = logstream.WebSocketURL("ftp://host/graphql", "")
	assert.ErrorIs(t, err, logstream.ErrUnsupportedScheme)
}
