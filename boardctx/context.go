// Package boardctx carries CLI scoped switches through context to the
// adapters.
package boardctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexDevice
)

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// DeviceIndex selects one of several identical USB adapters; ok is false
// when none was chosen.
func DeviceIndex(ctx context.Context) (int, bool) {
	val := ctx.Value(ctxIndexDevice)
	if val == nil {
		return 0, false
	}
	return val.(int), true
}

func SetDeviceIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, ctxIndexDevice, index)
}
