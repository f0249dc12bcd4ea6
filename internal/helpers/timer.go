package helpers

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Records how long each phase of a build takes. A nil timer is valid and
// records nothing, so callers don't need to check whether timing is enabled.
type Timer struct {
	data  []timerData
	mutex sync.Mutex
}

type timerData struct {
	time  time.Time
	name  string
	isEnd bool
}

func (t *Timer) Begin(name string) {
	if t != nil {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		t.data = append(t.data, timerData{
			name: name,
			time: time.Now(),
		})
	}
}

func (t *Timer) End(name string) {
	if t != nil {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		t.data = append(t.data, timerData{
			name:  name,
			time:  time.Now(),
			isEnd: true,
		})
	}
}

type TimerPhase struct {
	Name     string
	Depth    int
	Duration time.Duration
}

// Pairs up every "Begin" with its "End" in the order the phases started
func (t *Timer) Phases() []TimerPhase {
	if t == nil {
		return nil
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	type pair struct {
		timerData
		index int
	}

	var phases []TimerPhase
	var stack []pair

	for _, item := range t.data {
		if !item.isEnd {
			stack = append(stack, pair{timerData: item, index: len(phases)})
			phases = append(phases, TimerPhase{Name: item.name, Depth: len(stack) - 1})
			continue
		}
		last := len(stack) - 1
		top := stack[last]
		stack = stack[:last]
		if item.name != top.name {
			panic("Internal error")
		}
		phases[top.index].Duration = item.time.Sub(top.time)
	}

	return phases
}

// Reports every phase as one debug event
func (t *Timer) Log(log zerolog.Logger) {
	if t == nil {
		return
	}

	dict := zerolog.Dict()
	for _, phase := range t.Phases() {
		dict = dict.Dur(phase.Name, phase.Duration)
	}
	log.Debug().Dict("timings", dict).Msg("Timing information")
}
