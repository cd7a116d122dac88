package i2c

// DefaultBaud is the baud rate generator reload value written on reinit.
const DefaultBaud = 0xff

// Bus wraps one bus module with non-blocking primitives. Every primitive
// classifies the current state first and performs at most one hardware
// action; none of them wait.
type Bus struct {
	regs  Registers
	lines LineDriver
	baud  uint16
}

type BusConfig struct {
	Baud  uint16
	Lines LineDriver
}

type BusOption func(*BusConfig)

func WithBaud(brg uint16) BusOption {
	return func(c *BusConfig) {
		c.Baud = brg
	}
}

func WithLines(lines LineDriver) BusOption {
	return func(c *BusConfig) {
		c.Lines = lines
	}
}

func NewBus(regs Registers, opts ...BusOption) *Bus {
	config := &BusConfig{Baud: DefaultBaud}
	for _, opt := range opts {
		opt(config)
	}
	return &Bus{regs: regs, lines: config.Lines, baud: config.Baud}
}

// State classifies the bus from its current register contents.
func (b *Bus) State() BusState {
	return Classify(b.regs.Control(), b.regs.Status())
}

func (b *Bus) setControl(bits Control) {
	b.regs.WriteControl(b.regs.Control() | bits)
}

// Enable switches the module on.
func (b *Bus) Enable() {
	b.setControl(ControlEnable)
}

// Reinit disables the module, clears control and status, pulls the lines
// low, reloads the baud rate and enables the module again.
func (b *Bus) Reinit() {
	b.regs.WriteControl(b.regs.Control() &^ ControlEnable)
	b.regs.WriteControl(0)
	b.regs.WriteStatus(0)
	if b.lines != nil {
		b.lines.DriveLow()
	}
	b.regs.WriteBaud(b.baud)
	b.Enable()
}

func (b *Bus) Start() Result {
	switch b.State() {
	case IdleAck, IdleNack:
	case Stopping:
		return NotYet
	default:
		return Illegal
	}
	b.setControl(ControlStart)
	return Okay
}

func (b *Bus) Stop() Result {
	switch b.State() {
	case IdleAck, IdleNack:
	case Acking, Transmitting:
		return NotYet
	default:
		return Illegal
	}
	b.setControl(ControlStop)
	return Okay
}

func (b *Bus) Restart() Result {
	switch b.State() {
	case IdleAck:
	case Transmitting:
		return NotYet
	default:
		return Illegal
	}
	b.setControl(ControlRestart)
	return Okay
}

// AddressDevice sends the 7-bit address with the direction bit. A write
// collision here means someone else drives the bus and is reported as Illegal.
func (b *Bus) AddressDevice(addr byte, dir Direction) Result {
	switch b.State() {
	case IdleAck, IdleNack:
	case Starting, Restarting:
		return NotYet
	default:
		return Illegal
	}
	b.regs.WriteTransmit(addr<<1 | byte(dir))
	if b.clearWriteCollision() {
		return Illegal
	}
	return Okay
}

// TransmitByte loads one data byte. A write collision leaves the byte unsent
// and is retried on the next call.
func (b *Bus) TransmitByte(data byte) Result {
	switch b.State() {
	case IdleAck:
	case Transmitting:
		return NotYet
	default:
		return Illegal
	}
	b.regs.WriteTransmit(data)
	if b.clearWriteCollision() {
		return NotYet
	}
	return Okay
}

func (b *Bus) clearWriteCollision() bool {
	stat := b.regs.Status()
	if stat&StatusWriteCollision == 0 {
		return false
	}
	b.regs.WriteStatus(stat &^ StatusWriteCollision)
	return true
}

// CheckAck reports the acknowledgement of the last transmitted byte once the
// transmission has finished. It performs no hardware action.
func (b *Bus) CheckAck() (Ack, Result) {
	switch b.State() {
	case Transmitting:
		return AckBit, NotYet
	case IdleAck:
		return AckBit, Okay
	case IdleNack:
		return NackBit, Okay
	default:
		return AckBit, Illegal
	}
}

// RequestByte clocks in one byte from the addressed device.
func (b *Bus) RequestByte() Result {
	switch b.State() {
	case IdleAck:
	case Acking, Transmitting:
		return NotYet
	default:
		return Illegal
	}
	b.setControl(ControlReceive)
	return Okay
}

// ReceiveByte returns the requested byte once the receive buffer is full.
func (b *Bus) ReceiveByte() (byte, Result) {
	switch b.State() {
	case ReceiveBufferFull:
	case Receiving:
		return 0, NotYet
	default:
		return 0, Illegal
	}
	if b.regs.Status()&StatusReceiveFull == 0 {
		return 0, NotYet
	}
	return b.regs.ReadReceive(), Okay
}

// EmitAck answers a received byte: ACK asks for more, NACK ends the read.
func (b *Bus) EmitAck(ack Ack) Result {
	if b.State() != IdleAck {
		return Illegal
	}
	con := b.regs.Control()
	if ack == NackBit {
		con |= ControlAckData
	} else {
		con &^= ControlAckData
	}
	b.regs.WriteControl(con)
	b.setControl(ControlAckEnable)
	return Okay
}
