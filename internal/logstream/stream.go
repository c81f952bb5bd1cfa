// Package logstream follows the log output of a single run over a GraphQL
// WebSocket subscription, and degrades to polling when no socket can be
// opened.
package logstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/gjson"

	"infinity/internal/dagster"
	"infinity/internal/domain"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StatePolling    State = "polling"
	StateClosed     State = "closed"
)

var states = []State{StateIdle, StateConnecting, StateStreaming, StatePolling, StateClosed}

const (
	ProtocolTransportWS = "graphql-transport-ws"
	ProtocolGraphQLWS   = "graphql-ws"

	MsgSocketError     = "WebSocket error while subscribing to logs"
	MsgPollingFallback = "Unable to create WebSocket; falling back to polling logs."

	subscriptionID = "1"
)

var ErrUnsupportedScheme = errors.New("unsupported url scheme")

// WebSocketURL derives the streaming endpoint from the GraphQL URL.
// Relative URLs are resolved against base first.
func WebSocketURL(graphqlURL, base string) (string, error) {
	u, err := url.Parse(graphqlURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse graphql url %q", graphqlURL)
	}
	if !u.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return "", errors.Newf("relative graphql url %q needs an absolute base url, got %q", graphqlURL, base)
		}
		u = b.ResolveReference(u)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}
	return u.String(), nil
}

type PollFunc func(ctx context.Context) error

type Options struct {
	GraphQLURL   string
	BaseURL      string
	Token        string
	PollInterval time.Duration
	// Poll stands in for log delivery while in the polling state.
	Poll    PollFunc
	Dialer  *websocket.Dialer
	Logger  hclog.Logger
	Metrics *Metrics
}

// Status is a copy of the stream state.
type Status struct {
	State     State               `json:"state"`
	RunID     string              `json:"runId,omitempty"`
	Protocol  string              `json:"protocol,omitempty"`
	Logs      []domain.LogMessage `json:"logs"`
	LastError string              `json:"lastError,omitempty"`
}

type session struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// Stream owns at most one socket reader or one poller at a time.
type Stream struct {
	// op serializes Start and Stop.
	op sync.Mutex

	mu       sync.Mutex
	opts     Options
	logger   hclog.Logger
	state    State
	runID    string
	protocol string
	logs     []domain.LogMessage
	lastErr  string
	sess     *session
}

func New(opts Options) *Stream {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.Default().Named("logstream")
	}
	s := &Stream{opts: opts, logger: logger, state: StateIdle, logs: []domain.LogMessage{}}
	opts.Metrics.setState(StateIdle)
	return s
}

// Start tears down any previous subscription, clears the buffer and
// subscribes to runID. An empty runID leaves the stream idle.
func (s *Stream) Start(ctx context.Context, runID string) (Status, error) {
	s.op.Lock()
	defer s.op.Unlock()
	s.teardown()

	s.mu.Lock()
	s.logs = []domain.LogMessage{}
	s.lastErr = ""
	s.protocol = ""
	s.runID = runID
	if runID == "" {
		s.setState(StateIdle)
		s.mu.Unlock()
		return s.Status(), nil
	}
	s.setState(StateConnecting)
	s.mu.Unlock()

	wsURL, err := WebSocketURL(s.opts.GraphQLURL, s.opts.BaseURL)
	if err != nil {
		s.logger.Warn("no websocket url, polling instead", "graphql_url", s.opts.GraphQLURL, "error", err)
		s.startPolling()
		return s.Status(), nil
	}

	dialer := *s.opts.Dialer
	dialer.Subprotocols = []string{ProtocolTransportWS, ProtocolGraphQLWS}
	var header http.Header
	if s.opts.Token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + s.opts.Token}}
	}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		s.logger.Warn("websocket dial failed, polling instead", "url", wsURL, "error", err)
		s.startPolling()
		return s.Status(), nil
	}

	if err := s.initiate(conn, runID); err != nil {
		_ = conn.Close()
		s.logger.Warn("subscription handshake failed, polling instead", "error", err)
		s.startPolling()
		return s.Status(), nil
	}

	sess := &session{conn: conn, cancel: func() {}, done: make(chan struct{})}
	s.mu.Lock()
	s.sess = sess
	s.protocol = conn.Subprotocol()
	s.setState(StateStreaming)
	st := s.status()
	s.mu.Unlock()
	go s.read(sess)
	return st, nil
}

// initiate sends connection_init and exactly one subscription message whose
// type depends on the negotiated subprotocol.
func (s *Stream) initiate(conn *websocket.Conn, runID string) error {
	if err := conn.WriteJSON(map[string]any{"type": "connection_init", "payload": map[string]any{}}); err != nil {
		return errors.Wrap(err, "send connection_init")
	}
	kind := "start"
	if conn.Subprotocol() == ProtocolTransportWS {
		kind = "subscribe"
	}
	msg := map[string]any{
		"id":   subscriptionID,
		"type": kind,
		"payload": map[string]any{
			"query":     dagster.SubscriptionRunLogs,
			"variables": map[string]any{"runId": runID},
		},
	}
	return errors.Wrapf(conn.WriteJSON(msg), "send %s", kind)
}

func (s *Stream) read(sess *session) {
	defer close(sess.done)
	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.sess == sess {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					s.lastErr = MsgSocketError
					s.logger.Debug("websocket read ended", "error", err)
				}
				s.setState(StateClosed)
			}
			s.mu.Unlock()
			return
		}
		if s.handle(sess, raw) {
			_ = sess.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handle applies one frame and reports whether the subscription is over.
func (s *Stream) handle(sess *session, raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		s.opts.Metrics.dropped()
		return false
	}
	msg := gjson.ParseBytes(raw)
	switch msg.Get("type").String() {
	case "next", "data":
		list := msg.Get("payload.data.pipelineRunLogs.messages")
		if !list.IsArray() {
			s.opts.Metrics.dropped()
			return false
		}
		var incoming []domain.LogMessage
		if err := json.Unmarshal([]byte(list.Raw), &incoming); err != nil {
			s.opts.Metrics.dropped()
			return false
		}
		s.mu.Lock()
		if s.sess == sess {
			s.logs = append(s.logs, incoming...)
		}
		s.mu.Unlock()
		s.opts.Metrics.received(len(incoming))
	case "error":
		s.mu.Lock()
		if s.sess == sess {
			s.lastErr = msg.Get("payload").Raw
		}
		s.mu.Unlock()
	case "complete":
		s.mu.Lock()
		if s.sess == sess {
			s.setState(StateClosed)
		}
		s.mu.Unlock()
		return true
	case "ping":
		_ = sess.conn.WriteJSON(map[string]any{"type": "pong"})
	case "connection_ack", "ka", "pong":
	default:
		s.opts.Metrics.dropped()
	}
	return false
}

func (s *Stream) startPolling() {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{cancel: cancel, done: make(chan struct{})}
	s.mu.Lock()
	s.sess = sess
	s.lastErr = MsgPollingFallback
	s.setState(StatePolling)
	s.mu.Unlock()
	go s.poll(ctx, sess)
}

func (s *Stream) poll(ctx context.Context, sess *session) {
	defer close(sess.done)
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.opts.Poll == nil {
				continue
			}
			if err := s.opts.Poll(ctx); err != nil && ctx.Err() == nil {
				s.logger.Debug("poll failed", "error", err)
			}
		}
	}
}

// Stop closes the socket or cancels the poller and waits for it to exit.
func (s *Stream) Stop() Status {
	s.op.Lock()
	defer s.op.Unlock()
	s.teardown()
	return s.Status()
}

func (s *Stream) teardown() {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	if sess != nil {
		s.setState(StateClosed)
	}
	s.mu.Unlock()
	if sess == nil {
		return
	}
	sess.cancel()
	if sess.conn != nil {
		_ = sess.conn.Close()
	}
	<-sess.done
}

func (s *Stream) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Stream) status() Status {
	return Status{
		State:     s.state,
		RunID:     s.runID,
		Protocol:  s.protocol,
		Logs:      append([]domain.LogMessage{}, s.logs...),
		LastError: s.lastErr,
	}
}

// setState must be called with mu held.
func (s *Stream) setState(st State) {
	s.state = st
	s.opts.Metrics.setState(st)
}
