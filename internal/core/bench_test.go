package core

import (
	"context"
	"strconv"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(Options{})
	go hub.Run(ctx)

	sender := NewClient("sender", 1024)
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandRegisterUser, UserID: "sender", Username: "sender"}
	awaitAck(b, sender, &Command{Kind: CommandCreateRoom, Room: "bench", Create: true})

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		id := "c" + strconv.Itoa(i)
		c := NewClient(id, 1024)
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandRegisterUser, UserID: id, Username: id}
		awaitAck(b, c, &Command{Kind: CommandJoinRoom, Room: "bench"})
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:      CommandSendMessage,
			Room:      "bench",
			MessageID: strconv.Itoa(i),
			Message: Message{
				Text: "payload",
			},
		}
		for ev := range target.Events {
			if ev.Kind == EventReceiveMessage {
				break
			}
		}
	}
}

func awaitAck(b *testing.B, c *Client, cmd *Command) {
	b.Helper()
	cmd.AckID = c.ID + "-" + cmd.Kind.String()
	c.Commands <- cmd
	for ev := range c.Events {
		if ev.Kind == EventAck && ev.Ack.ID == cmd.AckID {
			if !ev.Ack.OK {
				b.Fatalf("%v failed: %+v", cmd.Kind, ev.Ack.Error)
			}
			return
		}
	}
	b.Fatalf("events closed")
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
