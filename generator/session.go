package generator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"interview_protocol/notify"
)

// Accumulator 持有当前唯一一轮生成的状态，所有修改都经过
// start/append/complete/fail 这几个转换。
type Accumulator struct {
	mu        sync.Mutex
	agent     *Agent
	toasts    notify.Pusher
	logger    *slog.Logger
	status    *StatusRotator
	observers []func(State)

	state  State
	run    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// AccumulatorOption 配置 Accumulator。
type AccumulatorOption func(*Accumulator)

// WithLogger 设置日志，默认丢弃。
func WithLogger(l *slog.Logger) AccumulatorOption {
	return func(a *Accumulator) { a.logger = l }
}

// WithStatusRotator 替换默认的状态轮播。
func WithStatusRotator(r *StatusRotator) AccumulatorOption {
	return func(a *Accumulator) { a.status = r }
}

func NewAccumulator(agent *Agent, toasts notify.Pusher, opts ...AccumulatorOption) (*Accumulator, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if toasts == nil {
		return nil, errors.New("toast queue required")
	}
	done := make(chan struct{})
	close(done)
	a := &Accumulator{
		agent:  agent,
		toasts: toasts,
		logger: slog.New(slog.DiscardHandler),
		done:   done,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.status == nil {
		a.status = NewStatusRotator(StatusInterval, nil)
	}
	a.logger = a.logger.With("component", "accumulator")
	return a, nil
}

// Subscribe 注册状态观察者。fn 在持锁状态下按发布顺序调用，不能回调 Accumulator。
func (a *Accumulator) Subscribe(fn func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// State 返回当前状态的快照。
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Status 返回当前显示的状态文案。
func (a *Accumulator) Status() string {
	return a.status.Current()
}

// Done 在当前一轮结束或被取代时关闭。
func (a *Accumulator) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Start 取代正在进行的生成并为 topic 开启新一轮。producer 在流开始前拒绝
// 请求时返回包裹 ErrConfiguration 的错误，此时状态携带 ConfigErrorMessage。
// 网络请求不在锁内进行，流本身在后台消费。
func (a *Accumulator) Start(ctx context.Context, topic string) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.closeDoneLocked()

	a.run++
	run := a.run
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.done = make(chan struct{})

	a.state = State{IsGenerating: true, Topic: topic, Run: run}
	a.status.Start()
	a.publishLocked()
	a.logger.Info("run started", "run", run, "topic", topic)
	a.mu.Unlock()

	seq, err := a.agent.Stream(runCtx, topic)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		if !errors.Is(err, ErrConfiguration) {
			err = fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		if run != a.run {
			// 已被新一轮取代，不再改动状态
			return err
		}
		a.logger.Error("run refused before streaming", "run", run, "error", err)
		a.terminateLocked(ConfigErrorMessage)
		return err
	}
	if run != a.run {
		return nil
	}
	go a.consume(runCtx, run, seq)
	return nil
}

// Cancel 停止当前一轮，不发 toast，已收到的内容保留。
func (a *Accumulator) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.IsGenerating {
		return
	}
	a.run++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.status.Stop()
	a.state.IsGenerating = false
	a.publishLocked()
	a.closeDoneLocked()
}

func (a *Accumulator) consume(ctx context.Context, run uint64, seq iter.Seq2[Fragment, error]) {
	for frag, err := range seq {
		if err != nil {
			a.fail(run, err)
			return
		}
		if !a.append(run, frag) {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	a.complete(run)
}

// append 返回 run 是否仍是当前一轮。
func (a *Accumulator) append(run uint64, frag Fragment) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if run != a.run {
		return false
	}
	if frag.Text == "" {
		return true
	}
	a.state.Content += frag.Text
	a.publishLocked()
	return true
}

func (a *Accumulator) complete(run uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if run != a.run {
		return
	}
	a.logger.Info("run completed", "run", run, "bytes", len(a.state.Content))
	a.terminateLocked("")
}

func (a *Accumulator) fail(run uint64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if run != a.run {
		return
	}
	a.logger.Error("run failed", "run", run, "error", err)
	a.terminateLocked(TransportErrorMessage)
}

// terminateLocked 结束当前一轮，按 msg 发出且只发出一条 toast。
func (a *Accumulator) terminateLocked(msg string) {
	a.status.Stop()
	a.state.IsGenerating = false
	a.state.Error = msg
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.publishLocked()
	if msg == "" {
		a.toasts.Push(MessageCompiled, notify.Success)
	} else {
		a.toasts.Push(MessageFailed, notify.Error)
	}
	a.closeDoneLocked()
}

func (a *Accumulator) closeDoneLocked() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *Accumulator) publishLocked() {
	s := a.state
	for _, fn := range a.observers {
		fn(s)
	}
}

