package services

// Broadcaster is the fan-out surface of the connection registry. Implemented
// by ws.Hub; delivery is best-effort per member and never blocks the caller.
type Broadcaster interface {
	Broadcast(room, event string, payload any)
	BroadcastAll(event string, payload any)
}
