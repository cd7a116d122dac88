package console

import (
	"github.com/fatih/color"

	"github.com/mklimuk/powerboard/i2c"
)

var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
)

// Result colors an engine outcome: green when the device answered, yellow
// for a NACK, red otherwise.
func Result(res i2c.Result) string {
	switch res {
	case i2c.Okay:
		return Green(res)
	case i2c.Nacked:
		return Yellow(res)
	default:
		return Red(res)
	}
}
