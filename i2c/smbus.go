package i2c

import "encoding/binary"

// SMBus protocol shapes. The buffers are owned by the caller and must stay
// put until the operation finishes.

func ReadByte(addr, cmd byte, dst *[1]byte) Operation {
	return Operation{Address: addr, HasCommand: true, Command: cmd, Read: Buffer{Data: dst[:]}}
}

func ReadWord(addr, cmd byte, dst *[2]byte) Operation {
	return Operation{Address: addr, HasCommand: true, Command: cmd, Read: Buffer{Data: dst[:]}}
}

func WriteByte(addr, cmd byte, src *[1]byte) Operation {
	return Operation{Address: addr, HasCommand: true, Command: cmd, Write: Buffer{Data: src[:]}}
}

func WriteWord(addr, cmd byte, src *[2]byte) Operation {
	return Operation{Address: addr, HasCommand: true, Command: cmd, Write: Buffer{Data: src[:]}}
}

// ReadBlock reads a block whose first byte is the count of the bytes after it.
func ReadBlock(addr, cmd byte, dst []byte) Operation {
	return Operation{Address: addr, HasCommand: true, Command: cmd, Read: Buffer{Data: dst, LengthPrefixed: true}}
}

// WriteBlock sends src[0] as the count followed by that many bytes of src.
func WriteBlock(addr, cmd byte, src []byte) Operation {
	return Operation{Address: addr, HasCommand: true, Command: cmd, Write: Buffer{Data: src, LengthPrefixed: true}}
}

// Word decodes an SMBus word, which travels low byte first.
func Word(b [2]byte) uint16 {
	return binary.LittleEndian.Uint16(b[:])
}

func PutWord(b *[2]byte, v uint16) {
	binary.LittleEndian.PutUint16(b[:], v)
}
