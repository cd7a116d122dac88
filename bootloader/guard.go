// Package bootloader holds the flash protection rules the power board's
// bootloader applies to host requests.
package bootloader

import "fmt"

// IVTBase is the first address past the reset vector.
const IVTBase = 0x0004

// DefaultApplicationStart is where the application image is linked.
const DefaultApplicationStart = 0x1800

// Layout describes the protected flash regions.
type Layout struct {
	BootloaderStart  uint32
	ApplicationStart uint32
}

// LayoutForPage places the bootloader right after the first erase page, whose
// size depends on the part.
func LayoutForPage(pageSize int) (Layout, error) {
	var start uint32
	switch pageSize {
	case 128:
		start = 0x200
	case 512:
		start = 0x400
	case 1024:
		start = 0x800
	default:
		return Layout{}, fmt.Errorf("unsupported flash page size %d", pageSize)
	}
	return Layout{BootloaderStart: start, ApplicationStart: DefaultApplicationStart}, nil
}

func (l Layout) protected(address uint32) bool {
	return address >= l.BootloaderStart && address < l.ApplicationStart
}

// RowWriteAllowed checks the row's target address: the bootloader itself and
// the reset vector cannot be overwritten by the application.
func (l Layout) RowWriteAllowed(address uint32) bool {
	return !l.protected(address) && address >= IVTBase
}

// EraseAllowed keeps the bootloader pages. Erasing page zero is allowed; the
// reset vector is rewritten with ResetVector afterwards.
func (l Layout) EraseAllowed(address uint32) bool {
	return !l.protected(address)
}

// ResetVector is the two instruction words placed at address zero so that
// reset always enters the bootloader.
func (l Layout) ResetVector() [2]uint32 {
	return [2]uint32{0x040000 | l.BootloaderStart, 0}
}
