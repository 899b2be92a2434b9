// Package relay abstracts the event relay carrying race commands and room
// events between the gateway and the coordinator. The relay is fire-and-
// forget: no delivery acknowledgment is observed by the core logic.
package relay

// Handler receives a delivered message.
type Handler func(subject string, data []byte)

// Subscription is an active relay subscription.
type Subscription interface {
	Unsubscribe() error
}

// Relay is a publish/subscribe relay. Subjects are dot-separated tokens;
// subscriptions may use the NATS wildcards "*" (one token) and ">" (tail).
// One shared instance is injected into every component that needs it.
type Relay interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler Handler) (Subscription, error)
	Close()
}

// Subject helpers shared by the gateway and coordinator.
const (
	commandSubjectPrefix = "race.commands."
	eventSubjectPrefix   = "race.events."
)

// CommandSubject is the subject the gateway publishes client commands to.
func CommandSubject(roomID string) string { return commandSubjectPrefix + roomID }

// CommandWildcard matches client commands for every room.
func CommandWildcard() string { return commandSubjectPrefix + "*" }

// EventSubject is the subject the coordinator publishes room events to.
func EventSubject(roomID string) string { return eventSubjectPrefix + roomID }

// EventWildcard matches room events for every room.
func EventWildcard() string { return eventSubjectPrefix + "*" }
