package powerboard

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// AddressableReader and AddressableWriter are whole-transaction buses, as
// offered by USB bridges and operating system drivers. The register level
// engine reaches them through sim.Bridge.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Transactor is implemented by buses that can write then read with a
// repeated start, without releasing the bus in between.
type Transactor interface {
	Transact(ctx context.Context, address byte, w, r []byte) error
}
