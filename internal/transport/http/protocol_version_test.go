package http

import (
	"testing"

	"github.com/vovakirdan/huddle-server/internal/proto"
)

func TestProtocolVersionMismatch(t *testing.T) {
	srv := startTestServer(t, testConfig(), nil)
	c := dial(t, srv)

	c.send(proto.InboundTypeRegisterUser, proto.RegisterUserData{UserID: "alice", Protocol: proto.ProtocolVersion + 1}, false)

	f := c.read()
	if f.Type != proto.OutboundTypeError || f.Error == nil || f.Error.Code != errCodeUnsupportedVersion {
		t.Fatalf("expected unsupported_version error, got %+v", f)
	}

	// The current version is accepted on the same connection.
	ack := c.request(proto.InboundTypeRegisterUser, proto.RegisterUserData{UserID: "alice", Protocol: proto.ProtocolVersion})
	if !ack.OK {
		t.Fatalf("register with current protocol failed: %+v", ack)
	}
}
