package i2c

// Control mirrors the bits of the I2C control register the engine touches.
type Control uint16

const (
	ControlStart     Control = 1 << iota // SEN
	ControlRestart                       // RSEN
	ControlStop                          // PEN
	ControlReceive                       // RCEN
	ControlAckEnable                     // ACKEN
	ControlAckData                       // ACKDT, set means NACK
	ControlEnable    Control = 1 << 15   // I2CEN
)

// Status mirrors the bits of the I2C status register the engine reads.
type Status uint16

const (
	StatusTransmitFull   Status = 1 << 0  // TBF
	StatusReceiveFull    Status = 1 << 1  // RBF
	StatusWriteCollision Status = 1 << 7  // IWCOL
	StatusBusCollision   Status = 1 << 10 // BCL
	StatusTransmitting   Status = 1 << 14 // TRSTAT
	StatusNack           Status = 1 << 15 // ACKSTAT
)

// Registers is the hardware boundary of one bus module. Writes replace the
// whole register; callers read-modify-write to flip single bits.
type Registers interface {
	Control() Control
	WriteControl(Control)
	Status() Status
	WriteStatus(Status)
	WriteTransmit(b byte)
	ReadReceive() byte
	WriteBaud(brg uint16)
}

// LineDriver forces the SDA and SCL pins low as outputs while the module is
// disabled. Some SMBus batteries only let go of a wedged bus that way.
type LineDriver interface {
	DriveLow()
}
