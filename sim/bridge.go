package sim

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mklimuk/powerboard"
	"github.com/mklimuk/powerboard/i2c"
)

// DefaultWindow is the number of bytes fetched for one read phase; 32 is
// the SMBus block maximum.
const DefaultWindow = 32

// Bridge is a simulated device that forwards to a transaction level bus.
// The write phase is buffered and flushed with WriteToAddr, either on stop
// or when the read phase begins; the read phase is served from a single
// ReadFromAddr of Window bytes. Buses implementing powerboard.Transactor get
// the write and the read as one transaction. Transport errors turn into NACKs.
type Bridge struct {
	ctx     context.Context
	bus     powerboard.I2CBus
	addr    byte
	window  int
	log     *slog.Logger
	wbuf    []byte
	rbuf    []byte
	rpos    int
	writing bool
	err     error
}

type BridgeOpt func(*Bridge)

func WithWindow(n int) BridgeOpt {
	return func(b *Bridge) {
		if n > 0 {
			b.window = n
		}
	}
}

func WithBridgeLogger(log *slog.Logger) BridgeOpt {
	return func(b *Bridge) {
		b.log = log
	}
}

func NewBridge(ctx context.Context, bus powerboard.I2CBus, addr byte, opts ...BridgeOpt) *Bridge {
	b := &Bridge{ctx: ctx, bus: bus, addr: addr, window: DefaultWindow, log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.rbuf = make([]byte, b.window)
	return b
}

// Err returns the last transport error, if any.
func (b *Bridge) Err() error {
	return b.err
}

func (b *Bridge) Begin(dir i2c.Direction) bool {
	if dir == i2c.Write {
		if !b.flush() {
			return false
		}
		b.writing = true
		return true
	}
	b.rpos = 0
	if tx, ok := b.bus.(powerboard.Transactor); ok && b.writing && len(b.wbuf) > 0 {
		b.writing = false
		err := tx.Transact(b.ctx, b.addr, b.wbuf, b.rbuf)
		b.wbuf = b.wbuf[:0]
		if err != nil {
			b.fail("bridge transaction failed", err)
			return false
		}
		return true
	}
	if !b.flush() {
		return false
	}
	err := b.bus.ReadFromAddr(b.ctx, b.addr, b.rbuf)
	if err != nil {
		b.fail("bridge read failed", err)
		return false
	}
	return true
}

func (b *Bridge) Write(v byte) bool {
	b.wbuf = append(b.wbuf, v)
	return true
}

func (b *Bridge) Read() byte {
	if b.rpos >= len(b.rbuf) {
		return 0xff
	}
	v := b.rbuf[b.rpos]
	b.rpos++
	return v
}

func (b *Bridge) End() {
	b.flush()
}

func (b *Bridge) flush() bool {
	if !b.writing || len(b.wbuf) == 0 {
		b.writing = false
		return true
	}
	b.writing = false
	err := b.bus.WriteToAddr(b.ctx, b.addr, b.wbuf)
	b.wbuf = b.wbuf[:0]
	if err != nil {
		b.fail("bridge write failed", err)
		return false
	}
	return true
}

func (b *Bridge) fail(msg string, err error) {
	b.err = err
	if errors.Is(err, powerboard.ErrBusBusy) {
		_ = b.bus.Release(b.ctx)
	}
	b.log.Debug(msg, "addr", b.addr, "error", err)
}
