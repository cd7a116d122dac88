package i2c

// Result is the outcome of a non-blocking bus action.
type Result uint8

const (
	// Okay means the action was performed (or the operation completed).
	Okay Result = iota
	// NotYet means the hardware is still busy; call again on the next tick.
	NotYet
	// Illegal means the action can never succeed from the current bus state.
	Illegal
	// Nacked is only returned by Execute: a device did not acknowledge, the
	// remaining phases were skipped and the bus was released with a stop.
	Nacked
)

func (r Result) String() string {
	switch r {
	case Okay:
		return "okay"
	case NotYet:
		return "not-yet"
	case Illegal:
		return "illegal"
	case Nacked:
		return "nacked"
	default:
		return "unknown"
	}
}

// Ack is the per-byte acknowledgement bit.
type Ack uint8

const (
	AckBit  Ack = 0
	NackBit Ack = 1
)

func (a Ack) String() string {
	if a == NackBit {
		return "NACK"
	}
	return "ACK"
}

// Direction is the R/W bit appended to a 7-bit address.
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}
