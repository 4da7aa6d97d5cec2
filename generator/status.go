package generator

import (
	"sync"
	"time"
)

// StatusInterval 生成期间状态文案的切换间隔。
const StatusInterval = 2500 * time.Millisecond

// StatusIdle 首次切换前显示。
const StatusIdle = "INITIALIZING..."

// StatusPhrases 仅作展示，不反映真实进度。
var StatusPhrases = []string{
	"ESTABLISHING UPLINK...",
	"ACCESSING ARCHIVES...",
	"DECRYPTING DATA...",
	"COMPILING REPORT...",
}

// StatusRotator 在 Start 与 Stop 之间按周期轮播 StatusPhrases。
type StatusRotator struct {
	mu       sync.Mutex
	interval time.Duration
	phrases  []string
	current  string
	onChange func(string)

	stop    chan struct{}
	running bool
}

func NewStatusRotator(interval time.Duration, onChange func(string)) *StatusRotator {
	if interval <= 0 {
		interval = StatusInterval
	}
	return &StatusRotator{
		interval: interval,
		phrases:  StatusPhrases,
		current:  StatusIdle,
		onChange: onChange,
	}
}

// Start 开始轮播，运行中再次调用会从头开始。
func (r *StatusRotator) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	r.current = StatusIdle
	stop := make(chan struct{})
	r.stop = stop
	r.running = true
	r.emitLocked()

	go r.loop(stop)
}

// Stop 停止轮播，返回后不会再有变化通知。
func (r *StatusRotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Current 返回当前文案。
func (r *StatusRotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Running 是否正在轮播。
func (r *StatusRotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *StatusRotator) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			// 过期的 tick 可能与 Stop 竞争，持锁再检查一次
			select {
			case <-stop:
				r.mu.Unlock()
				return
			default:
			}
			i = (i + 1) % len(r.phrases)
			r.current = r.phrases[i]
			r.emitLocked()
			r.mu.Unlock()
		}
	}
}

func (r *StatusRotator) stopLocked() {
	if !r.running {
		return
	}
	close(r.stop)
	r.running = false
}

func (r *StatusRotator) emitLocked() {
	if r.onChange != nil {
		r.onChange(r.current)
	}
}
