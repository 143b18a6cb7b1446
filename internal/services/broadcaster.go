package services

import "time"

// Event is pushed to live subscribers after an operation commits.
type Event struct {
	Type      string    `json:"type"`
	Casino    string    `json:"casino"`
	Subject   string    `json:"subject"`
	Actor     string    `json:"actor,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Broadcaster interface {
	Broadcast(event Event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(Event) {}
