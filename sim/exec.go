package sim

import (
	"errors"

	"github.com/mklimuk/powerboard/i2c"
)

var ErrStalled = errors.New("operation did not finish")

// Exec drives op to completion on bus, stepping ctrl after every call, and
// lets the closing stop through before returning. It gives up after limit
// calls.
func Exec(ctrl *Controller, bus *i2c.Bus, op *i2c.Operation, limit int) (i2c.Result, error) {
	var p i2c.Progress
	for i := 0; i < limit; i++ {
		res := i2c.Execute(bus, op, &p)
		ctrl.Step()
		if res != i2c.NotYet {
			return res, nil
		}
	}
	return i2c.NotYet, ErrStalled
}
