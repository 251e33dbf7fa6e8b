package puppet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/insitu/comm/memory"
	"github.com/viant/insitu/internal/clock"
	"github.com/viant/insitu/metrics"
	"github.com/viant/insitu/runtime/namemap"
	"github.com/viant/insitu/runtime/procmap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newPuppet(t *testing.T, program Program, opts ...Option) *Puppet {
	registry := NewRegistry()
	registry.Register("test", program)
	p, err := New("test", nil, nil, nil, append([]Option{WithRegistry(registry)}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestPuppet_Lifecycle(t *testing.T) {
	var trace []int
	p := newPuppet(t, func(env *Env) error {
		for i := 0; i < 3; i++ {
			trace = append(trace, i)
			if !env.Yield() {
				return nil
			}
		}
		trace = append(trace, 3)
		return nil
	})
	ctx := context.Background()
	assert.Equal(t, StatusNotStarted, p.Status())
	assert.True(t, p.Running())

	for i := 0; i < 3; i++ {
		running, err := p.Proceed(ctx)
		require.NoError(t, err)
		assert.True(t, running)
		assert.True(t, p.Running())
		assert.Equal(t, StatusRunning, p.Status())
		assert.Equal(t, i+1, len(trace))
	}
	running, err := p.Proceed(ctx)
	require.NoError(t, err)
	assert.False(t, running)
	assert.False(t, p.Running())
	assert.Equal(t, []int{0, 1, 2, 3}, trace)
	assert.Equal(t, 4, p.Steps())

	for i := 0; i < 2; i++ {
		running, err = p.Proceed(ctx)
		assert.False(t, running)
		assert.True(t, errors.Is(err, ErrAlreadyStopped))
	}
	assert.NoError(t, p.Err())
}

func TestPuppet_SignalStop(t *testing.T) {
	steps := 0
	p := newPuppet(t, func(env *Env) error {
		for env.Yield() {
			steps++
		}
		return nil
	})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		running, err := p.Proceed(ctx)
		require.NoError(t, err)
		require.True(t, running)
	}
	p.SignalStop()
	assert.True(t, p.Running(), "stop is only observed at the next yield")
	running, err := p.Proceed(ctx)
	require.NoError(t, err)
	assert.False(t, running)
	assert.Equal(t, 1, steps)
	assert.Equal(t, StatusStopped, p.Status())
}

func TestPuppet_StopTerminatesAtNextYield(t *testing.T) {
	deferred := false
	ignored := 0
	p := newPuppet(t, func(env *Env) error {
		defer func() { deferred = true }()
		for {
			if !env.Yield() {
				ignored++
			}
		}
	})
	ctx := context.Background()
	running, err := p.Proceed(ctx)
	require.NoError(t, err)
	require.True(t, running)

	p.SignalStop()
	running, err = p.Proceed(ctx)
	require.NoError(t, err)
	assert.False(t, running)
	assert.True(t, deferred)
	assert.Equal(t, 1, ignored)
}

func TestPuppet_StopBeforeStart(t *testing.T) {
	var seen bool
	p := newPuppet(t, func(env *Env) error {
		seen = env.StopRequested()
		if env.Yield() {
			t.Error("yield should report the pending stop")
		}
		return nil
	})
	p.SignalStop()
	running, err := p.Proceed(context.Background())
	require.NoError(t, err)
	assert.False(t, running)
	assert.True(t, seen)
	assert.Equal(t, 1, p.Steps())
}

func TestPuppet_Failure(t *testing.T) {
	boom := errors.New("boom")
	testCases := []struct {
		description string
		program     Program
		panicked    bool
	}{
		{
			description: "returned error",
			program: func(env *Env) error {
				env.Yield()
				return boom
			},
		},
		{
			description: "panic",
			program: func(env *Env) error {
				env.Yield()
				panic("index out of range")
			},
			panicked: true,
		},
	}
	for _, tc := range testCases {
		core, logs := observer.New(zapcore.ErrorLevel)
		p := newPuppet(t, tc.program, WithName("sim"), WithLogger(zap.New(core)))
		ctx := context.Background()
		running, err := p.Proceed(ctx)
		require.NoError(t, err, tc.description)
		require.True(t, running, tc.description)

		running, err = p.Proceed(ctx)
		assert.False(t, running, tc.description)
		require.Error(t, err, tc.description)
		assert.True(t, errors.Is(err, ErrUnrecoverable), tc.description)
		var taskErr *TaskError
		require.True(t, errors.As(err, &taskErr), tc.description)
		assert.Equal(t, "sim", taskErr.Puppet)
		assert.Equal(t, 2, taskErr.Step)
		assert.Equal(t, tc.panicked, taskErr.Panic, tc.description)
		if tc.panicked {
			assert.Contains(t, taskErr.Stack(), "index out of range")
			assert.Contains(t, taskErr.Stack(), "puppet.(*Puppet).run")
		} else {
			assert.True(t, errors.Is(err, boom), tc.description)
		}
		assert.Equal(t, err, p.Err())
		assert.Equal(t, 1, logs.FilterMessage("puppet failed").Len(), tc.description)

		_, err = p.Proceed(ctx)
		assert.True(t, errors.Is(err, ErrAlreadyStopped), tc.description)
		assert.False(t, errors.Is(err, ErrUnrecoverable), tc.description)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestPuppet_TotalTime(t *testing.T) {
	fake := &fakeClock{now: time.Unix(0, 0)}
	clock.NowFunc = fake.Now
	defer func() { clock.NowFunc = time.Now }()

	p := newPuppet(t, func(env *Env) error {
		for i := 0; i < 3; i++ {
			fake.Advance(10 * time.Millisecond)
			env.Yield()
		}
		return nil
	})
	ctx := context.Background()
	previous := p.TotalTime()
	assert.Equal(t, time.Duration(0), previous)
	for p.Running() {
		_, err := p.Proceed(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.TotalTime(), previous)
		previous = p.TotalTime()
		// time spent outside the puppet is not counted
		fake.Advance(time.Second)
	}
	assert.Equal(t, 30*time.Millisecond, p.TotalTime())
}

func TestPuppet_SharedNameMap(t *testing.T) {
	registry := NewRegistry()
	registry.Register("producer", func(env *Env) error {
		for env.Yield() {
			nm := env.NameMap()
			if err := nm.PublishInt("t", 3); err != nil {
				return err
			}
			if err := nm.PublishFloats("data", []float64{1.0, 2.0}); err != nil {
				return err
			}
		}
		return nil
	})
	var observed []int64
	var sums []float64
	registry.Register("consumer", func(env *Env) error {
		for env.Yield() {
			nm := env.NameMap()
			v, err := nm.ReadInt("t")
			if err != nil {
				return err
			}
			data, err := nm.ReadFloats("data")
			if err != nil {
				return err
			}
			sum := 0.0
			for _, f := range data {
				sum += f
			}
			observed = append(observed, v)
			sums = append(sums, sum)
		}
		return nil
	})
	nm := namemap.New()
	producer, err := New("producer", nil, nil, nm, WithRegistry(registry))
	require.NoError(t, err)
	consumer, err := New("consumer", nil, nil, nm, WithRegistry(registry))
	require.NoError(t, err)

	ctx := context.Background()
	// first round only reaches the initial yields
	for i := 0; i < 3; i++ {
		running, err := Round(ctx, producer, consumer)
		require.NoError(t, err)
		require.True(t, running)
	}
	assert.Equal(t, []int64{3, 3}, observed)
	assert.Equal(t, []float64{3.0, 3.0}, sums)

	producer.SignalStop()
	consumer.SignalStop()
	require.NoError(t, RunAll(ctx, producer, consumer))
	assert.False(t, producer.Running())
	assert.False(t, consumer.Running())
}

func TestRound_IsolatesFailures(t *testing.T) {
	failing := newPuppet(t, func(env *Env) error { return errors.New("bad input") })
	count := 0
	healthy := newPuppet(t, func(env *Env) error {
		for i := 0; i < 2; i++ {
			count++
			env.Yield()
		}
		return nil
	})
	ctx := context.Background()
	running, err := Round(ctx, failing, healthy)
	assert.True(t, running)
	assert.True(t, errors.Is(err, ErrUnrecoverable))

	running, err = Round(ctx, failing, healthy)
	assert.NoError(t, err, "stopped puppets are skipped")
	assert.True(t, running)
	running, err = Round(ctx, failing, healthy)
	assert.NoError(t, err)
	assert.False(t, running)
	assert.Equal(t, 2, count)
}

func TestPuppet_Close(t *testing.T) {
	deferred := false
	p := newPuppet(t, func(env *Env) error {
		defer func() { deferred = true }()
		for {
			env.Yield()
		}
	})
	ctx := context.Background()
	_, err := p.Proceed(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Close(ctx))
	assert.True(t, deferred)
	assert.False(t, p.Running())

	idle := newPuppet(t, func(env *Env) error {
		t.Error("never started puppet must not run")
		return nil
	})
	require.NoError(t, idle.Close(ctx))
	assert.False(t, idle.Running())
}

func TestPuppet_Env(t *testing.T) {
	world, err := memory.NewWorld(3)
	require.NoError(t, err)
	c, err := world.Comm(2)
	require.NoError(t, err)
	pm, err := procmap.New(c, []procmap.Group{{Name: "simulation", Size: 1}, {Name: "analysis", Size: 2}})
	require.NoError(t, err)

	collectors, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	registry := NewRegistry()
	registry.Register("analysis", func(env *Env) error {
		assert.Equal(t, []string{"--window", "3 steps"}, env.Args())
		assert.Equal(t, "analysis", env.Name())
		assert.Equal(t, 2, env.World().Size())
		assert.Equal(t, 1, env.World().Rank())
		assert.Same(t, pm, env.ProcMap())
		assert.True(t, env.Active())
		assert.NotNil(t, env.Context())
		assert.NotNil(t, env.Logger())
		assert.Equal(t, 0, env.Step())
		env.Yield()
		assert.Equal(t, 1, env.Step())
		return nil
	})

	p, err := Load(`bin/analysis.py --window "3 steps"`, pm, nil, WithRegistry(registry), WithPrefix("/opt/insitu"), WithMetrics(collectors))
	require.NoError(t, err)
	assert.Equal(t, "/opt/insitu/bin/analysis.py", p.Path())
	assert.Equal(t, "analysis", p.Name())
	require.NoError(t, RunAll(context.Background(), p))
	assert.Equal(t, 2.0, testutil.ToFloat64(collectors.PuppetSteps.WithLabelValues("analysis")))
}

func TestLoad_Errors(t *testing.T) {
	registry := NewRegistry()
	_, err := Load("missing --flag", nil, nil, WithRegistry(registry))
	assert.True(t, errors.Is(err, ErrProgramNotFound))
	_, err = Load("", nil, nil, WithRegistry(registry))
	assert.True(t, errors.Is(err, ErrProgramNotFound))
	_, err = Load(`analysis "unterminated`, nil, nil, WithRegistry(registry))
	assert.Error(t, err)
}

func TestProceed_CancelledContext(t *testing.T) {
	p := newPuppet(t, func(env *Env) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	running, err := p.Proceed(ctx)
	assert.True(t, running)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StatusNotStarted, p.Status())
}

func TestRunDriven(t *testing.T) {
	var trace []string
	driver := newPuppet(t, func(env *Env) error {
		for i := 0; i < 2; i++ {
			trace = append(trace, "driver")
			if !env.Yield() {
				return nil
			}
		}
		return nil
	})
	follower := newPuppet(t, func(env *Env) error {
		for {
			trace = append(trace, "follower")
			if !env.Yield() {
				trace = append(trace, "follower stopped")
				return nil
			}
		}
	})
	require.NoError(t, RunDriven(context.Background(), 0, driver, follower))
	assert.Equal(t, []string{"driver", "follower", "driver", "follower", "follower stopped"}, trace)
	assert.False(t, follower.Running())
}

func TestRunDriven_Rounds(t *testing.T) {
	steps := 0
	driver := newPuppet(t, func(env *Env) error {
		for env.Yield() {
			steps++
		}
		return nil
	})
	require.NoError(t, RunDriven(context.Background(), 3, driver))
	assert.Equal(t, 2, steps)
	assert.False(t, driver.Running())
}

func TestPuppet_Close_CancelledContext(t *testing.T) {
	exited := make(chan struct{})
	p := newPuppet(t, func(env *Env) error {
		defer close(exited)
		for env.Yield() {
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Proceed(ctx)
	require.NoError(t, err)
	cancel()

	err = p.Close(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StatusStopped, p.Status())
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("program goroutine still suspended after close")
	}
	require.NoError(t, p.Close(context.Background()))
}

func TestRunDriven_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	steps := 0
	driver := newPuppet(t, func(env *Env) error {
		for {
			if steps++; steps == 2 {
				cancel()
			}
			if !env.Yield() {
				return nil
			}
		}
	})
	exited := make(chan struct{})
	follower := newPuppet(t, func(env *Env) error {
		defer close(exited)
		for env.Yield() {
		}
		return nil
	})
	err := RunDriven(ctx, 0, driver, follower)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, driver.Running())
	assert.False(t, follower.Running())
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("follower still suspended after cancellation")
	}
}
