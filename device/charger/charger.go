package charger

const DefaultAddress = 0x0c

// RegisterState is the charger's vendor word reporting an external supply.
const RegisterState = 0xca

// Present is the state word while an external supply is connected.
const Present = 0xdada

func Connected(state uint16) bool {
	return state == Present
}
