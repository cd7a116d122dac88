package fan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/powerboard/state"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		given    state.CommunicationState
		expected uint8
	}{
		{"idle", state.CommunicationState{}, 0},
		{"at threshold", state.CommunicationState{MotorEffort: [state.MotorCount]int16{5, -5, 0}}, 0},
		{"driving", state.CommunicationState{MotorEffort: [state.MotorCount]int16{6, -5, 0}}, MaxSpeed},
		{"reverse", state.CommunicationState{MotorEffort: [state.MotorCount]int16{-1000, -1000, 0}}, MaxSpeed},
		{"flipper does not count", state.CommunicationState{MotorEffort: [state.MotorCount]int16{0, 0, 1000}}, 0},
		{"manual wins", state.CommunicationState{UseManualFanSpeed: true, FanSpeed: 60, MotorEffort: [state.MotorCount]int16{500, 500, 0}}, 60},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := test.given
			assert.Equal(t, test.expected, Decide(&c))
			assert.Equal(t, test.expected, c.FanSpeed, "decision is visible in the shared state")
		})
	}
}
