package i2c

// BusState is derived from the control and status registers on every call.
// It is never stored.
type BusState uint8

const (
	Starting BusState = iota
	Restarting
	Stopping
	Receiving
	Acking
	Disabled
	BusCollision
	Transmitting
	ReceiveBufferFull
	IdleAck
	IdleNack
)

var busStateNames = [...]string{
	Starting:          "starting",
	Restarting:        "restarting",
	Stopping:          "stopping",
	Receiving:         "receiving",
	Acking:            "acking",
	Disabled:          "disabled",
	BusCollision:      "bus-collision",
	Transmitting:      "transmitting",
	ReceiveBufferFull: "receive-buffer-full",
	IdleAck:           "idle-ack",
	IdleNack:          "idle-nack",
}

func (s BusState) String() string {
	if int(s) < len(busStateNames) {
		return busStateNames[s]
	}
	return "unknown"
}

// Classify picks the single active state. Control bits for in-flight
// conditions win over the enable bit, which wins over status flags.
func Classify(con Control, stat Status) BusState {
	switch {
	case con&ControlStart != 0:
		return Starting
	case con&ControlRestart != 0:
		return Restarting
	case con&ControlStop != 0:
		return Stopping
	case con&ControlReceive != 0:
		return Receiving
	case con&ControlAckEnable != 0:
		return Acking
	case con&ControlEnable == 0:
		return Disabled
	case stat&StatusBusCollision != 0:
		return BusCollision
	case stat&StatusTransmitting != 0:
		return Transmitting
	case stat&StatusReceiveFull != 0:
		return ReceiveBufferFull
	case stat&StatusNack != 0:
		return IdleNack
	default:
		return IdleAck
	}
}
