package monitoring

import (
	"sync"
	"time"

	"github.com/ft4fttsim/ft4fttsim/sim"
)

// A ProgressBar shows how far a simulation has advanced towards the time it
// runs until. Total and Finished are in whole simulated microseconds.
type ProgressBar struct {
	lock sync.Mutex

	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// Advance moves the bar to the given simulated time. The bar never goes
// past its total and never moves back.
func (b *ProgressBar) Advance(now sim.VTimeInUs) {
	b.lock.Lock()
	defer b.lock.Unlock()

	reached := min(uint64(max(now, 0)), b.Total)
	b.Finished = max(b.Finished, reached)
}

// Func advances the bar after every event, so that the bar can be hooked to
// an engine.
func (b *ProgressBar) Func(ctx sim.HookCtx) {
	if ctx.Pos == sim.HookPosAfterEvent {
		b.Advance(ctx.Now)
	}
}

func (b *ProgressBar) snapshot() progressRsp {
	b.lock.Lock()
	defer b.lock.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}
