package rover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/powerboard/config"
	"github.com/mklimuk/powerboard/device/charger"
	"github.com/mklimuk/powerboard/device/fan"
	"github.com/mklimuk/powerboard/sim"
	"github.com/mklimuk/powerboard/state"
)

type rig struct {
	settings *config.Settings
	bench    *Bench
	state    *state.State
	runner   *Runner
	now      time.Time
	fan      []byte
}

func newRig(t *testing.T, settings *config.Settings, latency int) *rig {
	r := &rig{
		settings: settings,
		state:    &state.State{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	r.bench = NewBench(DefaultAddresses(), sim.WithLatency(latency))
	r.bench.FanController.OnWrite = func(cmd byte, data []byte) {
		if cmd == fan.RegisterSpeed {
			r.fan = append(r.fan, data[0])
		}
	}
	a, b := r.bench.Buses()
	r.runner = NewRunner(settings, r.state, a, b,
		WithBeforeTick(r.bench.Step),
		WithClock(func() time.Time { return r.now }),
		WithFaultHandler(func(step string) { t.Errorf("unexpected bus fault in %s", step) }),
	)
	return r
}

// cycles ticks until both buses completed n cycles.
func (r *rig) cycles(t *testing.T, n uint64) {
	for i := 0; i < 100000; i++ {
		r.runner.Tick()
		snaps := r.runner.Snapshots()
		if snaps[0].Cycles >= n && snaps[1].Cycles >= n {
			return
		}
	}
	t.Fatalf("buses did not complete %d cycles: %+v", n, r.runner.Snapshots())
}

func TestRunner_PollsBothBuses(t *testing.T) {
	r := newRig(t, config.Default(), 1)
	r.cycles(t, 1)

	i2c := r.state.I2C
	assert.Equal(t, [2]uint16{31, 33}, i2c.TemperatureSensor)
	assert.Equal(t, [2]bool{true, true}, i2c.TemperatureSensorValid)
	assert.Equal(t, uint16(87), i2c.SmartBattery[state.BatteryA].SOC)
	assert.Equal(t, uint16(64), i2c.SmartBattery[state.BatteryB].SOC)
	assert.Equal(t, uint16(16400), i2c.SmartBattery[state.BatteryA].Voltage)
	assert.Equal(t, uint16(0xfd44), i2c.SmartBattery[state.BatteryB].Current)
	assert.Equal(t, uint16(2981), i2c.SmartBattery[state.BatteryB].Temperature)
	assert.Equal(t, uint16(0x00c0), i2c.SmartBattery[state.BatteryA].Status)
	assert.False(t, charger.Connected(i2c.ChargerState))

	snaps := r.runner.Snapshots()
	assert.Equal(t, "A", snaps[0].Name)
	assert.Equal(t, uint64(1), snaps[0].Reinits, "only the power-on reinit")
	assert.Zero(t, snaps[0].Nacks)
}

func TestRunner_FanFollowsDriveEffort(t *testing.T) {
	r := newRig(t, config.Default(), 0)
	r.cycles(t, 1)
	assert.Equal(t, []byte{0}, r.fan)

	r.state.Communication.MotorEffort[state.MotorLeft] = 400
	r.cycles(t, 2)
	assert.Equal(t, []byte{0, fan.MaxSpeed}, r.fan)
	assert.Equal(t, uint8(fan.MaxSpeed), r.state.Communication.FanSpeed)
}

func TestRunner_ManualFanCommandExpires(t *testing.T) {
	settings := config.Default()
	settings.Main.I2CPollMs = 1
	r := newRig(t, settings, 0)

	r.state.Communication.CommandFan(100, r.now)
	r.runner.Tick()
	assert.Equal(t, []byte{100}, r.fan)

	r.now = r.now.Add(500 * time.Millisecond)
	r.runner.Tick()
	assert.Equal(t, []byte{100, 100}, r.fan)

	r.now = r.now.Add(501 * time.Millisecond)
	r.runner.Tick()
	assert.False(t, r.state.Communication.UseManualFanSpeed)
	r.runner.Tick()
	assert.Equal(t, []byte{100, 100, 100, 0}, r.fan)
}

func TestRunner_MissingDeviceKeepsValues(t *testing.T) {
	r := newRig(t, config.Default(), 0)
	r.bench.Charger.SetWord(charger.RegisterState, charger.Present)
	r.cycles(t, 1)
	require.True(t, charger.Connected(r.state.I2C.ChargerState))

	r.bench.B.Detach(charger.DefaultAddress)
	r.bench.FanController.SetByte(fan.RegisterTemperatureLeft, 40)
	r.bench.A.Detach(fan.DefaultAddress)
	r.cycles(t, 2)

	assert.True(t, charger.Connected(r.state.I2C.ChargerState), "stale value is kept")
	assert.Equal(t, uint16(31), r.state.I2C.TemperatureSensor[0])
	assert.Equal(t, [2]bool{false, false}, r.state.I2C.TemperatureSensorValid)
	assert.Equal(t, uint64(1), r.runner.Snapshots()[1].Nacks)
	assert.Equal(t, uint64(3), r.runner.Snapshots()[0].Nacks)
}

func TestRunner_StalledBusIsReset(t *testing.T) {
	r := newRig(t, config.Default(), 1)
	r.bench.A.Freeze(true)
	for i := 0; i < r.settings.StallTicks()+2; i++ {
		r.runner.Tick()
	}
	snaps := r.runner.Snapshots()
	assert.Equal(t, uint64(2), snaps[0].Reinits)
	assert.Equal(t, uint64(1), snaps[1].Reinits, "bus B is independent")
	assert.Equal(t, 2, r.bench.A.LineResets())

	r.bench.A.Freeze(false)
	r.cycles(t, 1)
	assert.Equal(t, uint16(87), r.state.I2C.SmartBattery[state.BatteryA].SOC)
}

func TestRunner_RequestReset(t *testing.T) {
	r := newRig(t, config.Default(), 0)
	r.cycles(t, 1)
	r.runner.RequestReset()
	r.runner.Tick()
	for _, snap := range r.runner.Snapshots() {
		assert.Equal(t, uint64(2), snap.Reinits)
	}
}
