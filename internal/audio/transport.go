// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"time"
)

// State is the playback state of the transport.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TransportState is a snapshot of the transport.
type TransportState struct {
	State           State     `json:"state"`
	PositionSeconds float64   `json:"position"`
	StartWallClock  time.Time `json:"start_wall_clock"` // Zero unless Playing.
}
