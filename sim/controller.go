// Package sim models an I2C master module at register level so the engine can
// run on a host. Hardware time only moves when Step is called; every action
// completes Latency steps after it was issued (immediately when Latency is 0).
package sim

import (
	"fmt"

	"github.com/mklimuk/powerboard/i2c"
)

var _ i2c.Registers = &Controller{}

type ActionKind uint8

const (
	ActStart ActionKind = iota
	ActRestart
	ActStop
	ActAddress
	ActTransmit
	ActRequest
	ActReceive
	ActAck
	ActNack
	ActBaud
)

var actionNames = [...]string{
	ActStart:    "start",
	ActRestart:  "restart",
	ActStop:     "stop",
	ActAddress:  "address",
	ActTransmit: "transmit",
	ActRequest:  "request",
	ActReceive:  "receive",
	ActAck:      "ack",
	ActNack:     "nack",
	ActBaud:     "baud",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "unknown"
}

// Action is one hardware action observed by the controller.
type Action struct {
	Kind ActionKind
	Byte byte
}

func (a Action) String() string {
	switch a.Kind {
	case ActAddress:
		dir := i2c.Direction(a.Byte & 1)
		return fmt.Sprintf("address %#02x %s", a.Byte>>1, dir)
	case ActTransmit, ActReceive:
		return fmt.Sprintf("%s %#02x", a.Kind, a.Byte)
	case ActBaud:
		return fmt.Sprintf("baud %#02x", a.Byte)
	default:
		return a.Kind.String()
	}
}

type ControllerOpts struct {
	Latency int
}

type ControllerOpt func(*ControllerOpts)

// WithLatency sets how many Step calls an action needs to complete.
func WithLatency(steps int) ControllerOpt {
	return func(o *ControllerOpts) {
		o.Latency = steps
	}
}

type inflight uint8

const (
	idle inflight = iota
	starting
	restarting
	stopping
	addressing
	transmitting
	receiving
	acking
)

// Controller implements i2c.Registers on top of simulated devices.
type Controller struct {
	con  i2c.Control
	stat i2c.Status
	trn  byte
	rcv  byte
	brg  uint16

	latency   int
	remaining int
	busy      inflight
	frozen    bool

	devices   map[byte]Device
	addressed Device
	held      Device
	dir       i2c.Direction

	collideNext bool
	actions     []Action
	lineResets  int
}

// NewController returns an enabled, idle controller.
func NewController(opts ...ControllerOpt) *Controller {
	config := ControllerOpts{}
	for _, opt := range opts {
		opt(&config)
	}
	return &Controller{
		con:     i2c.ControlEnable,
		latency: config.Latency,
		devices: make(map[byte]Device),
	}
}

// Attach places a device at a 7-bit address.
func (c *Controller) Attach(addr byte, dev Device) {
	c.devices[addr] = dev
}

func (c *Controller) Detach(addr byte) {
	delete(c.devices, addr)
}

// Actions returns the hardware actions issued since the last ClearActions.
func (c *Controller) Actions() []Action {
	return c.actions
}

func (c *Controller) ClearActions() {
	c.actions = c.actions[:0]
}

// Freeze stops hardware time; in-flight actions never complete while frozen.
func (c *Controller) Freeze(frozen bool) {
	c.frozen = frozen
}

// InjectBusCollision raises the bus collision flag as if arbitration was lost.
func (c *Controller) InjectBusCollision() {
	c.stat |= i2c.StatusBusCollision
}

// InjectWriteCollision makes the next transmit register write collide.
func (c *Controller) InjectWriteCollision() {
	c.collideNext = true
}

// LineResets counts how often the bus lines were forced low.
func (c *Controller) LineResets() int {
	return c.lineResets
}

// DriveLow implements i2c.LineDriver.
func (c *Controller) DriveLow() {
	c.lineResets++
	c.abort()
}

func (c *Controller) Control() i2c.Control {
	return c.con
}

func (c *Controller) Status() i2c.Status {
	return c.stat
}

func (c *Controller) WriteStatus(s i2c.Status) {
	c.stat = s
}

func (c *Controller) WriteBaud(brg uint16) {
	c.brg = brg
	c.record(ActBaud, byte(brg))
}

func (c *Controller) Baud() uint16 {
	return c.brg
}

func (c *Controller) WriteControl(next i2c.Control) {
	prev := c.con
	c.con = next
	if next&i2c.ControlEnable == 0 {
		c.abort()
		return
	}
	rising := next &^ prev
	switch {
	case rising&i2c.ControlStart != 0:
		c.record(ActStart, 0)
		c.begin(starting)
	case rising&i2c.ControlRestart != 0:
		c.record(ActRestart, 0)
		c.begin(restarting)
	case rising&i2c.ControlStop != 0:
		c.record(ActStop, 0)
		c.begin(stopping)
	case rising&i2c.ControlReceive != 0:
		c.record(ActRequest, 0)
		c.begin(receiving)
	case rising&i2c.ControlAckEnable != 0:
		if next&i2c.ControlAckData != 0 {
			c.record(ActNack, 0)
		} else {
			c.record(ActAck, 0)
		}
		c.begin(acking)
	}
}

func (c *Controller) WriteTransmit(b byte) {
	if c.collideNext || c.busy != idle || c.stat&i2c.StatusTransmitting != 0 {
		c.collideNext = false
		c.stat |= i2c.StatusWriteCollision
		return
	}
	c.trn = b
	c.stat |= i2c.StatusTransmitting | i2c.StatusTransmitFull
	if c.expectingAddress() {
		c.record(ActAddress, b)
		c.begin(addressing)
		return
	}
	c.record(ActTransmit, b)
	c.begin(transmitting)
}

func (c *Controller) ReadReceive() byte {
	c.record(ActReceive, c.rcv)
	c.stat &^= i2c.StatusReceiveFull
	return c.rcv
}

// Step advances hardware time by one unit.
func (c *Controller) Step() {
	if c.frozen || c.busy == idle {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.complete()
	}
}

// expectingAddress is true right after a start or restart condition.
func (c *Controller) expectingAddress() bool {
	return c.addressed == nil
}

func (c *Controller) record(kind ActionKind, b byte) {
	c.actions = append(c.actions, Action{Kind: kind, Byte: b})
}

func (c *Controller) begin(what inflight) {
	c.busy = what
	c.remaining = c.latency
	if c.latency == 0 && !c.frozen {
		c.complete()
	}
}

func (c *Controller) complete() {
	what := c.busy
	c.busy = idle
	switch what {
	case starting:
		c.con &^= i2c.ControlStart
		c.release()
	case restarting:
		c.con &^= i2c.ControlRestart
		c.held = c.addressed
		c.addressed = nil
	case stopping:
		c.con &^= i2c.ControlStop
		c.release()
	case addressing:
		c.stat &^= i2c.StatusTransmitting | i2c.StatusTransmitFull
		addr := c.trn >> 1
		c.dir = i2c.Direction(c.trn & 1)
		dev, ok := c.devices[addr]
		if c.held != nil && (!ok || c.held != dev) {
			c.held.End()
		}
		c.held = nil
		if ok && dev.Begin(c.dir) {
			c.addressed = dev
			c.stat &^= i2c.StatusNack
			return
		}
		c.addressed = nil
		c.stat |= i2c.StatusNack
	case transmitting:
		c.stat &^= i2c.StatusTransmitting | i2c.StatusTransmitFull
		if c.addressed != nil && c.dir == i2c.Write && c.addressed.Write(c.trn) {
			c.stat &^= i2c.StatusNack
			return
		}
		c.stat |= i2c.StatusNack
	case receiving:
		c.con &^= i2c.ControlReceive
		c.rcv = 0xff
		if c.addressed != nil && c.dir == i2c.Read {
			c.rcv = c.addressed.Read()
		}
		c.stat |= i2c.StatusReceiveFull
	case acking:
		c.con &^= i2c.ControlAckEnable
	}
}

// release ends the conversation with the addressed device, or with the one
// held across a repeated start.
func (c *Controller) release() {
	if c.addressed != nil {
		c.addressed.End()
		c.addressed = nil
	}
	if c.held != nil {
		c.held.End()
		c.held = nil
	}
}

func (c *Controller) abort() {
	c.busy = idle
	c.remaining = 0
	c.release()
}
