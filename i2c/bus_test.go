package i2c

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// regs is a bare register file; it never moves on its own.
type regs struct {
	con     Control
	stat    Status
	trn     []byte
	rcv     byte
	brg     uint16
	collide bool
	lows    int
}

func (r *regs) Control() Control { return r.con }
func (r *regs) WriteControl(c Control) { r.con = c }
func (r *regs) Status() Status { return r.stat }
func (r *regs) WriteStatus(s Status) { r.stat = s }
func (r *regs) ReadReceive() byte { r.stat &^= StatusReceiveFull; return r.rcv }
func (r *regs) WriteBaud(brg uint16) { r.brg = brg }
func (r *regs) DriveLow() { r.lows++ }
func (r *regs) WriteTransmit(b byte) {
	if r.collide {
		r.stat |= StatusWriteCollision
		return
	}
	r.trn = append(r.trn, b)
}

func TestBus_Start(t *testing.T) {
	tests := []struct {
		name     string
		con      Control
		stat     Status
		expected Result
	}{
		{"idle ack", ControlEnable, 0, Okay},
		{"idle nack", ControlEnable, StatusNack, Okay},
		{"stopping", ControlEnable | ControlStop, 0, NotYet},
		{"transmitting", ControlEnable, StatusTransmitting, Illegal},
		{"disabled", 0, 0, Illegal},
		{"collision", ControlEnable, StatusBusCollision, Illegal},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &regs{con: test.con, stat: test.stat}
			bus := NewBus(r)
			assert.Equal(t, test.expected, bus.Start())
			assert.Equal(t, test.expected == Okay, r.con&ControlStart != 0)
		})
	}
}

func TestBus_StopAndRestart(t *testing.T) {
	r := &regs{con: ControlEnable | ControlAckEnable}
	bus := NewBus(r)
	assert.Equal(t, NotYet, bus.Stop())

	r.con = ControlEnable
	r.stat = StatusTransmitting
	assert.Equal(t, NotYet, bus.Stop())
	assert.Equal(t, NotYet, bus.Restart())

	r.stat = StatusNack
	assert.Equal(t, Illegal, bus.Restart(), "restart needs an acknowledged device")
	assert.Equal(t, Okay, bus.Stop())
	assert.NotZero(t, r.con&ControlStop)

	r.con = ControlEnable
	r.stat = 0
	assert.Equal(t, Okay, bus.Restart())
	assert.NotZero(t, r.con&ControlRestart)
}

func TestBus_AddressDevice(t *testing.T) {
	r := &regs{con: ControlEnable | ControlStart}
	bus := NewBus(r)
	assert.Equal(t, NotYet, bus.AddressDevice(0x0b, Read))
	assert.Empty(t, r.trn)

	r.con = ControlEnable
	assert.Equal(t, Okay, bus.AddressDevice(0x0b, Read))
	assert.Equal(t, []byte{0x17}, r.trn)

	r.collide = true
	assert.Equal(t, Illegal, bus.AddressDevice(0x0b, Write))
	assert.Zero(t, r.stat&StatusWriteCollision, "collision flag must be cleared")
}

func TestBus_TransmitByte_WriteCollisionRetries(t *testing.T) {
	r := &regs{con: ControlEnable, collide: true}
	bus := NewBus(r)
	assert.Equal(t, NotYet, bus.TransmitByte(0xaa))
	assert.Zero(t, r.stat&StatusWriteCollision)

	r.collide = false
	assert.Equal(t, Okay, bus.TransmitByte(0xaa))
	assert.Equal(t, []byte{0xaa}, r.trn)

	r.stat = StatusNack
	assert.Equal(t, Illegal, bus.TransmitByte(0xbb))
}

func TestBus_CheckAck(t *testing.T) {
	r := &regs{con: ControlEnable, stat: StatusTransmitting}
	bus := NewBus(r)
	_, res := bus.CheckAck()
	assert.Equal(t, NotYet, res)

	r.stat = StatusNack
	ack, res := bus.CheckAck()
	assert.Equal(t, Okay, res)
	assert.Equal(t, NackBit, ack)

	r.stat = 0
	ack, res = bus.CheckAck()
	assert.Equal(t, Okay, res)
	assert.Equal(t, AckBit, ack)

	r.con = 0
	_, res = bus.CheckAck()
	assert.Equal(t, Illegal, res)
}

func TestBus_ReadPath(t *testing.T) {
	r := &regs{con: ControlEnable | ControlAckEnable}
	bus := NewBus(r)
	assert.Equal(t, NotYet, bus.RequestByte())

	r.con = ControlEnable
	assert.Equal(t, Okay, bus.RequestByte())
	_, res := bus.ReceiveByte()
	assert.Equal(t, NotYet, res, "still receiving")

	r.con = ControlEnable
	r.stat = StatusReceiveFull
	r.rcv = 0x42
	b, res := bus.ReceiveByte()
	assert.Equal(t, Okay, res)
	assert.Equal(t, byte(0x42), b)

	_, res = bus.ReceiveByte()
	assert.Equal(t, Illegal, res, "nothing was requested")
}

func TestBus_EmitAck(t *testing.T) {
	r := &regs{con: ControlEnable}
	bus := NewBus(r)
	assert.Equal(t, Okay, bus.EmitAck(NackBit))
	assert.NotZero(t, r.con&ControlAckData)
	assert.NotZero(t, r.con&ControlAckEnable)

	assert.Equal(t, Illegal, bus.EmitAck(AckBit), "already acking")

	r.con = ControlEnable | ControlAckData
	assert.Equal(t, Okay, bus.EmitAck(AckBit))
	assert.Zero(t, r.con&ControlAckData)
}

func TestBus_Reinit(t *testing.T) {
	r := &regs{con: ControlEnable | ControlReceive, stat: StatusBusCollision | StatusNack}
	bus := NewBus(r, WithLines(r), WithBaud(0x9d))
	bus.Reinit()
	assert.Equal(t, ControlEnable, r.con)
	assert.Zero(t, r.stat)
	assert.Equal(t, uint16(0x9d), r.brg)
	assert.Equal(t, 1, r.lows)
	assert.Equal(t, IdleAck, bus.State())
}
