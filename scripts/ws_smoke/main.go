package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/huddle-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "identity to register with")
	room := flag.String("room", "smoke", "room to create")
	text := flag.String("text", "hello from smoke test", "message text to send")
	token := flag.String("token", "", "signed token when the server requires one")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(kind, ack string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", kind, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: kind, Ack: ack, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", kind, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeRegisterUser, "1", proto.RegisterUserData{
		UserID:   *user,
		Username: *user,
		Token:    *token,
		Protocol: proto.ProtocolVersion,
	}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeCreateRoom, "2", proto.CreateRoomData{RoomID: *room, IsCreate: true}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeSendMessage, "", proto.SendMessageData{
		Room:      *room,
		Message:   *text,
		MessageID: fmt.Sprintf("smoke-%d", time.Now().UnixNano()),
	}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Ack   string          `json:"ack"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		if outbound.Ack != "" {
			fmt.Printf(" ack=%s", outbound.Ack)
		}
		fmt.Printf(" data=%s\n", outbound.Data)

		switch {
		case outbound.Error != nil:
			return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
		case outbound.Type == proto.OutboundTypeAck:
			var ack proto.AckData
			if err := json.Unmarshal(outbound.Data, &ack); err != nil {
				return fmt.Errorf("decode ack: %w", err)
			}
			if !ack.OK {
				return fmt.Errorf("request %s rejected: %s (%s)", outbound.Ack, ack.Reason, ack.ReasonType)
			}
		case outbound.Event == "receive_message":
			fmt.Println("smoke test passed")
			return nil
		case outbound.Event == "create_room_failed":
			return errors.New("room could not be created")
		}
	}
}
