package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/huddle-server/internal/config"
	"github.com/vovakirdan/huddle-server/internal/core"
	"github.com/vovakirdan/huddle-server/internal/proto"
	"github.com/vovakirdan/huddle-server/internal/store"
)

type testServer struct {
	ts  *httptest.Server
	hub *core.Hub
}

func startTestServer(t *testing.T, cfg config.Config, auditStore store.AuditStore) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(core.Options{FailoverGrace: 50 * time.Millisecond, Logger: &logger})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, auditStore, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return &testServer{ts: ts, hub: hub}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Mode = "test"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

// frame is an outbound envelope with its data left raw.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Ack   string          `json:"ack"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	ctx  context.Context
}

var ackSeq atomic.Int64

func dial(t *testing.T, srv *testServer) *wsClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	wsURL := strings.Replace(srv.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	return &wsClient{t: t, conn: conn, ctx: ctx}
}

// send writes one inbound frame and returns the ack id it carried.
func (c *wsClient) send(kind string, data any, withAck bool) string {
	c.t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		c.t.Fatalf("marshal %s: %v", kind, err)
	}
	in := proto.Inbound{Type: kind, Data: payload}
	if withAck {
		in.Ack = fmt.Sprintf("a%d", ackSeq.Add(1))
	}
	if err := wsjson.Write(c.ctx, c.conn, in); err != nil {
		c.t.Fatalf("send %s: %v", kind, err)
	}
	return in.Ack
}

func (c *wsClient) read() frame {
	c.t.Helper()

	var f frame
	if err := wsjson.Read(c.ctx, c.conn, &f); err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return f
}

// waitEvent skips frames until the named event arrives.
func (c *wsClient) waitEvent(name string) frame {
	c.t.Helper()
	for {
		f := c.read()
		if f.Type == proto.OutboundTypeEvent && f.Event == name {
			return f
		}
	}
}

// waitAck skips frames until the ack with the given id arrives.
func (c *wsClient) waitAck(id string) proto.AckData {
	c.t.Helper()
	for {
		f := c.read()
		if f.Type != proto.OutboundTypeAck || f.Ack != id {
			continue
		}
		var ack proto.AckData
		if err := json.Unmarshal(f.Data, &ack); err != nil {
			c.t.Fatalf("decode ack: %v", err)
		}
		return ack
	}
}

// request sends a frame with an ack id and waits for its answer.
func (c *wsClient) request(kind string, data any) proto.AckData {
	c.t.Helper()
	return c.waitAck(c.send(kind, data, true))
}

func (c *wsClient) register(userID, username string) {
	c.t.Helper()
	if ack := c.request(proto.InboundTypeRegisterUser, proto.RegisterUserData{UserID: userID, Username: username}); !ack.OK {
		c.t.Fatalf("register %s: %+v", userID, ack)
	}
}

func decodeData[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(f.Data, &v); err != nil {
		t.Fatalf("decode %s data: %v", f.Event, err)
	}
	return v
}
