package adapter

import (
	"context"
	"errors"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/powerboard"
)

var _ powerboard.I2CBus = &GobotBus{}

// GobotBus reaches devices through a gobot platform adaptor. Connections are
// opened per address on first use and kept until Release.
type GobotBus struct {
	connector i2c.Connector
	bus       int
	conns     map[byte]i2c.Connection
	finalize  func() error
}

type GobotConfig struct {
	Bus int
}

type GobotOption func(*GobotConfig)

// WithBusNumber selects the platform bus; the connector's default otherwise.
func WithBusNumber(bus int) GobotOption {
	return func(c *GobotConfig) {
		c.Bus = bus
	}
}

func NewGobotBus(connector i2c.Connector, opts ...GobotOption) *GobotBus {
	config := &GobotConfig{Bus: connector.DefaultI2cBus()}
	for _, opt := range opts {
		opt(config)
	}
	return &GobotBus{
		connector: connector,
		bus:       config.Bus,
		conns:     make(map[byte]i2c.Connection),
	}
}

// OpenNanoPi connects to the I2C buses of a NanoPi NEO board.
func OpenNanoPi(opts ...GobotOption) (*GobotBus, error) {
	npi := nanopi.NewNeoAdaptor()
	err := npi.I2cBusAdaptor.Connect()
	if err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	b := NewGobotBus(npi, opts...)
	b.finalize = npi.I2cBusAdaptor.Finalize
	return b, nil
}

func (b *GobotBus) conn(address byte) (i2c.Connection, error) {
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not open connection to %x on bus %d: %w", address, b.bus, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	n, err := c.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %x: %d of %d", address, n, len(buffer))
	}
	return nil
}

// Release closes every open connection; the next call reopens them.
func (b *GobotBus) Release(ctx context.Context) error {
	var errs []error
	for addr, c := range b.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	return errors.Join(errs...)
}

func (b *GobotBus) Close() error {
	err := b.Release(context.Background())
	if b.finalize != nil {
		err = errors.Join(err, b.finalize())
	}
	return err
}
