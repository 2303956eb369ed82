package participant

import "time"

const (
	aliveTimeout      = 30 * time.Second
	AliveHistoryLimit = 10
)

// Transport names how the coordinator reaches a participant.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportMQTT  Transport = "mqtt"
	TransportLocal Transport = "local"
)

// Participant is a registered data holder.
type Participant struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Address      string      `json:"address,omitempty"`
	Transport    Transport   `json:"transport"`
	Alive        bool        `json:"alive"`
	// Static participants are configured rather than announced and are
	// eligible for training without heartbeats.
	Static       bool        `json:"static,omitempty"`
	AliveHistory []time.Time `json:"alive_history"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// SetAlive recomputes Alive from the most recent heartbeat.
func (p *Participant) SetAlive() {
	if len(p.AliveHistory) > 0 {
		lastAlive := p.AliveHistory[len(p.AliveHistory)-1]
		if time.Since(lastAlive) <= aliveTimeout {
			p.Alive = true

			return
		}
	}
	p.Alive = false
}

// Heartbeat records a liveness signal at t, keeping the newest entries.
func (p *Participant) Heartbeat(t time.Time) {
	p.AliveHistory = append(p.AliveHistory, t)
	if len(p.AliveHistory) > AliveHistoryLimit {
		p.AliveHistory = p.AliveHistory[len(p.AliveHistory)-AliveHistoryLimit:]
	}
	p.SetAlive()
}

type Page struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}
