package sim

import (
	"github.com/mklimuk/powerboard/i2c"
)

// Device is the target side of a simulated bus.
type Device interface {
	// Begin is called when the device's address is clocked out; returning
	// false NACKs the address.
	Begin(dir i2c.Direction) bool
	// Write receives one data byte; returning false NACKs it.
	Write(b byte) bool
	// Read supplies the next byte the master clocks in.
	Read() byte
	// End is called on stop. A repeated start to the same device shows up
	// as another Begin without End in between.
	End()
}

// DeviceFuncs builds a Device from behaviour functions. Nil functions ACK
// everything and read 0xff.
type DeviceFuncs struct {
	BeginFunc func(dir i2c.Direction) bool
	WriteFunc func(b byte) bool
	ReadFunc  func() byte
	EndFunc   func()
}

func (d *DeviceFuncs) Begin(dir i2c.Direction) bool {
	if d.BeginFunc == nil {
		return true
	}
	return d.BeginFunc(dir)
}

func (d *DeviceFuncs) Write(b byte) bool {
	if d.WriteFunc == nil {
		return true
	}
	return d.WriteFunc(b)
}

func (d *DeviceFuncs) Read() byte {
	if d.ReadFunc == nil {
		return 0xff
	}
	return d.ReadFunc()
}

func (d *DeviceFuncs) End() {
	if d.EndFunc != nil {
		d.EndFunc()
	}
}

// RegisterMap is an SMBus style device: the first byte written after the
// address selects a command, further bytes are its payload, and reads return
// the stored bytes of the selected command. Commands are independent of each
// other, so word command 0x08 does not overlap with 0x09.
type RegisterMap struct {
	regs     map[byte][]byte
	cmd      byte
	selected bool
	pos      int
	pending  []byte
	writing  bool

	// OnWrite is called with the command and payload after a write ends.
	OnWrite func(cmd byte, data []byte)
}

func NewRegisterMap() *RegisterMap {
	return &RegisterMap{regs: make(map[byte][]byte)}
}

func (m *RegisterMap) SetByte(cmd, v byte) {
	m.regs[cmd] = []byte{v}
}

// SetWord stores v low byte first.
func (m *RegisterMap) SetWord(cmd byte, v uint16) {
	m.regs[cmd] = []byte{byte(v), byte(v >> 8)}
}

// SetBlock stores data behind a count byte.
func (m *RegisterMap) SetBlock(cmd byte, data []byte) {
	m.regs[cmd] = append([]byte{byte(len(data))}, data...)
}

// Get returns the raw bytes stored for cmd.
func (m *RegisterMap) Get(cmd byte) []byte {
	return m.regs[cmd]
}

func (m *RegisterMap) Begin(dir i2c.Direction) bool {
	m.commit()
	m.pos = 0
	m.writing = dir == i2c.Write
	if m.writing {
		m.selected = false
		m.pending = m.pending[:0]
	}
	return true
}

func (m *RegisterMap) Write(b byte) bool {
	if !m.selected {
		m.cmd = b
		m.selected = true
		return true
	}
	m.pending = append(m.pending, b)
	return true
}

func (m *RegisterMap) Read() byte {
	data := m.regs[m.cmd]
	if m.pos >= len(data) {
		m.pos++
		return 0xff
	}
	b := data[m.pos]
	m.pos++
	return b
}

func (m *RegisterMap) End() {
	m.commit()
}

func (m *RegisterMap) commit() {
	if !m.writing || len(m.pending) == 0 {
		return
	}
	data := append([]byte(nil), m.pending...)
	m.regs[m.cmd] = data
	if m.OnWrite != nil {
		m.OnWrite(m.cmd, data)
	}
	m.pending = m.pending[:0]
	m.writing = false
}
