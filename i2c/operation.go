package i2c

// Buffer is one side of a transaction. When LengthPrefixed is set the first
// byte declares how many bytes follow it; the transfer is capped to len(Data).
type Buffer struct {
	Data           []byte
	LengthPrefixed bool
}

// transferLen is min(len(Data), first+1) for a prefixed buffer, len(Data) otherwise.
func (b Buffer) transferLen(first byte) int {
	if !b.LengthPrefixed {
		return len(b.Data)
	}
	return min(len(b.Data), int(first)+1)
}

// Operation describes one start..stop transaction against a single device.
// The executor never modifies it; only Read.Data receives bytes.
type Operation struct {
	Address    byte
	HasCommand bool
	Command    byte
	Write      Buffer
	Read       Buffer
}

func (op *Operation) hasWrite() bool {
	return op.HasCommand || len(op.Write.Data) > 0
}

func (op *Operation) hasRead() bool {
	return len(op.Read.Data) > 0
}

type subStep uint8

const (
	stepStart subStep = iota
	stepAddressWrite
	stepAddressWriteAck
	stepCommand
	stepCommandAck
	stepWrite
	stepWriteAck
	stepRestart
	stepAddressRead
	stepAddressReadAck
	stepRequest
	stepReceive
	stepAck
	stepNack
	stepStop
)

var subStepNames = [...]string{
	stepStart:           "start",
	stepAddressWrite:    "address-write",
	stepAddressWriteAck: "address-write-ack",
	stepCommand:         "command",
	stepCommandAck:      "command-ack",
	stepWrite:           "write",
	stepWriteAck:        "write-ack",
	stepRestart:         "restart",
	stepAddressRead:     "address-read",
	stepAddressReadAck:  "address-read-ack",
	stepRequest:         "request",
	stepReceive:         "receive",
	stepAck:             "ack",
	stepNack:            "nack",
	stepStop:            "stop",
}

func (s subStep) String() string {
	if int(s) < len(subStepNames) {
		return subStepNames[s]
	}
	return "invalid"
}

// Progress is the resume cursor of one in-flight operation. The zero value
// starts a new operation; it is zeroed again on every terminal outcome.
type Progress struct {
	step     subStep
	nacked   bool
	written  int
	writeLen int
	read     int
	readLen  int
}

// Reset abandons whatever the cursor pointed at.
func (p *Progress) Reset() {
	*p = Progress{}
}

// Step names the sub-step the next Execute call resumes at.
func (p *Progress) Step() string {
	return p.step.String()
}

// Idle is true when no sub-step has been performed yet.
func (p *Progress) Idle() bool {
	return p.step == stepStart
}

// Written is the number of payload bytes acknowledged so far.
func (p *Progress) Written() int {
	return p.written
}

// ReadCount is the number of bytes stored into the read buffer so far.
func (p *Progress) ReadCount() int {
	return p.read
}

func (p *Progress) finish(r Result) Result {
	p.Reset()
	return r
}

func (p *Progress) nack() {
	p.nacked = true
	p.step = stepStop
}

func (p *Progress) beginWrite(op *Operation) {
	p.written = 0
	p.writeLen = 0
	if len(op.Write.Data) > 0 {
		p.writeLen = op.Write.transferLen(op.Write.Data[0])
	}
	if p.writeLen > 0 {
		p.step = stepWrite
		return
	}
	p.afterWrite(op)
}

func (p *Progress) afterWrite(op *Operation) {
	if op.hasRead() {
		p.step = stepRestart
		return
	}
	p.step = stepStop
}

// Execute advances op on bus from where p left off. It performs every
// sub-step that is ready and returns NotYet at the first one that is not,
// leaving p pointing at it. Okay, Nacked and Illegal are terminal and reset p.
// Illegal skips the stop: the caller is expected to reinitialize the bus.
func Execute(bus *Bus, op *Operation, p *Progress) Result {
	for {
		var r Result
		switch p.step {
		case stepStart:
			if r = bus.Start(); r != Okay {
				break
			}
			switch {
			case op.hasWrite():
				p.step = stepAddressWrite
			case op.hasRead():
				p.step = stepAddressRead
			default:
				p.step = stepStop
			}
		case stepAddressWrite:
			if r = bus.AddressDevice(op.Address, Write); r == Okay {
				p.step = stepAddressWriteAck
			}
		case stepAddressWriteAck:
			var ack Ack
			if ack, r = bus.CheckAck(); r != Okay {
				break
			}
			switch {
			case ack == NackBit:
				p.nack()
			case op.HasCommand:
				p.step = stepCommand
			default:
				p.beginWrite(op)
			}
		case stepCommand:
			if r = bus.TransmitByte(op.Command); r == Okay {
				p.step = stepCommandAck
			}
		case stepCommandAck:
			var ack Ack
			if ack, r = bus.CheckAck(); r != Okay {
				break
			}
			if ack == NackBit {
				p.nack()
				break
			}
			p.beginWrite(op)
		case stepWrite:
			if r = bus.TransmitByte(op.Write.Data[p.written]); r == Okay {
				p.step = stepWriteAck
			}
		case stepWriteAck:
			var ack Ack
			if ack, r = bus.CheckAck(); r != Okay {
				break
			}
			if ack == NackBit {
				p.nack()
				break
			}
			p.written++
			if p.written < p.writeLen {
				p.step = stepWrite
				break
			}
			p.afterWrite(op)
		case stepRestart:
			if r = bus.Restart(); r == Okay {
				p.step = stepAddressRead
			}
		case stepAddressRead:
			if r = bus.AddressDevice(op.Address, Read); r == Okay {
				p.step = stepAddressReadAck
			}
		case stepAddressReadAck:
			var ack Ack
			if ack, r = bus.CheckAck(); r != Okay {
				break
			}
			if ack == NackBit {
				p.nack()
				break
			}
			p.read = 0
			p.step = stepRequest
		case stepRequest:
			if r = bus.RequestByte(); r == Okay {
				p.step = stepReceive
			}
		case stepReceive:
			var b byte
			if b, r = bus.ReceiveByte(); r != Okay {
				break
			}
			op.Read.Data[p.read] = b
			if p.read == 0 {
				p.readLen = op.Read.transferLen(b)
			}
			p.read++
			if p.read < p.readLen {
				p.step = stepAck
			} else {
				p.step = stepNack
			}
		case stepAck:
			if r = bus.EmitAck(AckBit); r == Okay {
				p.step = stepRequest
			}
		case stepNack:
			if r = bus.EmitAck(NackBit); r == Okay {
				p.step = stepStop
			}
		case stepStop:
			if r = bus.Stop(); r != Okay {
				break
			}
			if p.nacked {
				return p.finish(Nacked)
			}
			return p.finish(Okay)
		default:
			return p.finish(Illegal)
		}
		switch r {
		case NotYet:
			return NotYet
		case Illegal:
			return p.finish(Illegal)
		}
	}
}
