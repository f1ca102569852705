package thumbcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countTicks counts the ticks delivered by d during window.
func countTicks(d *Debouncer, window time.Duration) int {
	n := 0
	deadline := time.After(window)
	for {
		select {
		case <-d.C():
			n++
		case <-deadline:
			return n
		}
	}
}

func Test_Debouncer_Coalesces_Burst_Into_One_Tick(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(150 * time.Millisecond)
	defer d.Stop()

	for range 30 {
		d.Trigger()
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, 1, countTicks(d, 600*time.Millisecond))
}

func Test_Debouncer_Fires_Once_Per_Quiet_Period(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Trigger()
	assert.Equal(t, 1, countTicks(d, 200*time.Millisecond))

	d.Trigger()
	assert.Equal(t, 1, countTicks(d, 200*time.Millisecond))
}

func Test_Debouncer_Stop_Cancels_Pending_Tick(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(30 * time.Millisecond)
	d.Trigger()
	assert.True(t, d.Pending())
	d.Stop()

	assert.False(t, d.Pending())
	assert.Equal(t, 0, countTicks(d, 150*time.Millisecond))

	d.Trigger()
	assert.Equal(t, 0, countTicks(d, 150*time.Millisecond))
}

func Test_Debouncer_Trigger_Withdraws_Unreceived_Tick(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	d.Trigger()
	time.Sleep(80 * time.Millisecond) // tick is now buffered
	d.Trigger()

	select {
	case <-d.C():
		t.Fatal("tick of the previous quiet period was delivered")
	default:
	}
	assert.Equal(t, 1, countTicks(d, 200*time.Millisecond))
}
