package core

import "sync"

const defaultClientBuffer = 64

// Client is one live connection as seen by the core layer.
// Commands is written by the transport and closed by UnregisterClient;
// Events is written only by the hub and closed once the connection is released.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
	}
}

func (c *Client) closeCommands() {
	c.closeOnce.Do(func() { close(c.Commands) })
}
