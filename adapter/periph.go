package adapter

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/powerboard"
)

var _ powerboard.I2CBus = &PeriphBus{}
var _ powerboard.Transactor = &PeriphBus{}

// PeriphBus is an operating system I2C bus driven through periph.io.
type PeriphBus struct {
	bus   i2c.Bus
	close func() error
}

type PeriphConfig struct {
	Speed physic.Frequency
}

type PeriphOption func(*PeriphConfig)

func WithSpeed(f physic.Frequency) PeriphOption {
	return func(c *PeriphConfig) {
		c.Speed = f
	}
}

// OpenPeriph initializes the host drivers and opens dev, e.g. "/dev/i2c-1"
// or "" for the first bus found.
func OpenPeriph(dev string, opts ...PeriphOption) (*PeriphBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	b, err := NewPeriphBus(bus, opts...)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	b.close = bus.Close
	return b, nil
}

// NewPeriphBus wraps an already open bus; the caller keeps ownership.
func NewPeriphBus(bus i2c.Bus, opts ...PeriphOption) (*PeriphBus, error) {
	config := &PeriphConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.Speed != 0 {
		if err := bus.SetSpeed(config.Speed); err != nil {
			return nil, fmt.Errorf("could not set bus speed to %s: %w", config.Speed, err)
		}
	}
	return &PeriphBus{bus: bus}, nil
}

func (b *PeriphBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *PeriphBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// Transact writes w and reads r with a repeated start in between.
func (b *PeriphBus) Transact(ctx context.Context, address byte, w, r []byte) error {
	err := b.bus.Tx(uint16(address), w, r)
	if err != nil {
		return fmt.Errorf("could not transact with i2c bus %x: %w", address, err)
	}
	return nil
}

// Release is a no-op: the kernel driver never holds the bus between calls.
func (b *PeriphBus) Release(ctx context.Context) error {
	return nil
}

func (b *PeriphBus) String() string {
	return b.bus.String()
}

func (b *PeriphBus) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
