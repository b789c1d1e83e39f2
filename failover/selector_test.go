package failover

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jongio/amqp-core/amqpaddr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeDialer records attempts and fails for hosts listed in down.
type fakeDialer struct {
	mu    sync.Mutex
	down  map[string]bool
	calls []string
}

func newFakeDialer(down ...string) *fakeDialer {
	d := &fakeDialer{down: make(map[string]bool)}
	for _, host := range down {
		d.down[host] = true
	}
	return d
}

func (d *fakeDialer) setDown(host string, isDown bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.down[host] = isDown
}

func (d *fakeDialer) dial(ctx context.Context, addr amqpaddr.Address) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, addr.Host())
	if d.down[addr.Host()] {
		return "", errors.New("connection refused by " + addr.Host())
	}
	return "conn-" + addr.Host(), nil
}

func (d *fakeDialer) callCount(host string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == host {
			n++
		}
	}
	return n
}

func mustList(t *testing.T, s string) amqpaddr.List {
	t.Helper()
	list, err := amqpaddr.ParseList(s)
	require.NoError(t, err)
	return list
}

func noBreakers() Config {
	return Config{}
}

func TestNewSelector_NilDial(t *testing.T) {
	_, err := NewSelector[string](mustList(t, "amqp://h1"), nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNilDialFunc)
}

func TestConnect_EmptyList(t *testing.T) {
	d := newFakeDialer()
	sel, err := NewSelector(amqpaddr.NewList(nil), d.dial, DefaultConfig())
	require.NoError(t, err)

	_, _, err = sel.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoAddresses)
	assert.Empty(t, d.calls)
}

func TestConnect_FirstSucceeds(t *testing.T) {
	d := newFakeDialer()
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2"), d.dial, DefaultConfig())
	require.NoError(t, err)

	conn, addr, err := sel.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conn-h1", conn)
	assert.Equal(t, "h1", addr.Host())
	assert.Equal(t, []string{"h1"}, d.calls)
}

func TestConnect_FallsBackInListOrder(t *testing.T) {
	d := newFakeDialer("h1", "h2")
	sel, err := NewSelector(mustList(t, "amqp://h1, amqp://h2, amqp://h3, amqp://h4"), d.dial, noBreakers())
	require.NoError(t, err)

	conn, addr, err := sel.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conn-h3", conn)
	assert.Equal(t, "amqp://h3:5672/", addr.String())
	assert.Equal(t, []string{"h1", "h2", "h3"}, d.calls)
}

func TestConnect_Exhausted(t *testing.T) {
	d := newFakeDialer("h1", "h2")
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2"), d.dial, noBreakers())
	require.NoError(t, err)

	conn, addr, err := sel.Connect(context.Background())
	require.Error(t, err)
	assert.Empty(t, conn)
	assert.Equal(t, amqpaddr.Address{}, addr)
	assert.ErrorIs(t, err, ErrExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, 0, exhausted.Attempts[0].Index)
	assert.Equal(t, "h2", exhausted.Attempts[1].Address.Host())
	assert.Contains(t, err.Error(), "connection refused by h1")
	assert.Contains(t, err.Error(), "connection refused by h2")

	var attempt *AttemptError
	require.ErrorAs(t, err, &attempt)
	assert.Equal(t, 0, attempt.Index)
}

func TestConnect_ErrorsDoNotLeakCredentials(t *testing.T) {
	d := newFakeDialer("h1")
	sel, err := NewSelector(mustList(t, "amqp://app:s3cret@h1"), d.dial, noBreakers())
	require.NoError(t, err)

	_, _, err = sel.Connect(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cret")
}

func TestConnect_BreakerSkipsFailingAddress(t *testing.T) {
	d := newFakeDialer("h1")
	cfg := Config{BreakerFailures: 2, BreakerTimeout: time.Hour}
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2"), d.dial, cfg)
	require.NoError(t, err)

	for range 2 {
		_, addr, err := sel.Connect(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "h2", addr.Host())
	}
	assert.Equal(t, 2, d.callCount("h1"))
	assert.Equal(t, gobreaker.StateOpen, sel.BreakerState(0))
	assert.Equal(t, gobreaker.StateClosed, sel.BreakerState(1))

	_, addr, err := sel.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "h2", addr.Host())
	assert.Equal(t, 2, d.callCount("h1"), "open breaker must skip the dial")
}

func TestConnect_BreakerOpenReportedInExhaustedError(t *testing.T) {
	d := newFakeDialer("h1")
	cfg := Config{BreakerFailures: 1, BreakerTimeout: time.Hour}
	sel, err := NewSelector(mustList(t, "amqp://h1"), d.dial, cfg)
	require.NoError(t, err)

	_, _, err = sel.Connect(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	assert.NotErrorIs(t, err, ErrBreakerOpen)

	_, _, err = sel.Connect(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 1, d.callCount("h1"))
}

func TestConnect_BreakerRecovers(t *testing.T) {
	d := newFakeDialer("h1")
	cfg := Config{BreakerFailures: 1, BreakerTimeout: 50 * time.Millisecond}
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2"), d.dial, cfg)
	require.NoError(t, err)

	_, addr, err := sel.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "h2", addr.Host())
	assert.Equal(t, gobreaker.StateOpen, sel.BreakerState(0))

	d.setDown("h1", false)
	time.Sleep(100 * time.Millisecond)

	_, addr, err = sel.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "h1", addr.Host())
	assert.Equal(t, gobreaker.StateClosed, sel.BreakerState(0))
}

func TestConnect_CanceledContext(t *testing.T) {
	d := newFakeDialer()
	sel, err := NewSelector(mustList(t, "amqp://h1"), d.dial, DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = sel.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Empty(t, d.calls)
}

func TestConnect_CanceledDuringLastDial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dial := func(ctx context.Context, addr amqpaddr.Address) (string, error) {
		cancel()
		return "", ctx.Err()
	}
	cfg := Config{EnableMetrics: true}
	sel, err := NewSelector(mustList(t, "amqp://cancel-during-dial"), dial, cfg)
	require.NoError(t, err)

	exhaustedBefore := promtestutil.ToFloat64(exhaustedTotal)

	_, _, err = sel.Connect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExhausted)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.Contains(t, err.Error(), "after 1 attempts")
	assert.Equal(t, exhaustedBefore, promtestutil.ToFloat64(exhaustedTotal))
}

func TestConnectIndex_ReportsPositionOfDuplicate(t *testing.T) {
	d := newFakeDialer()
	calls := 0
	dial := func(ctx context.Context, addr amqpaddr.Address) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("refused")
		}
		return d.dial(ctx, addr)
	}
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2,amqp://h1"), dial, noBreakers())
	require.NoError(t, err)

	conn, i, err := sel.ConnectIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "conn-h1", conn)
	assert.Equal(t, 2, i)
}

func TestConnectIndex_EmptyList(t *testing.T) {
	sel, err := NewSelector(amqpaddr.NewList(nil), newFakeDialer().dial, noBreakers())
	require.NoError(t, err)

	_, i, err := sel.ConnectIndex(context.Background())
	assert.ErrorIs(t, err, ErrNoAddresses)
	assert.Equal(t, -1, i)
}

func TestConnect_CancellationDoesNotTripBreaker(t *testing.T) {
	cfg := Config{BreakerFailures: 1, BreakerTimeout: time.Hour}
	dial := func(ctx context.Context, addr amqpaddr.Address) (string, error) {
		return "", context.Canceled
	}
	sel, err := NewSelector(mustList(t, "amqp://h1"), dial, cfg)
	require.NoError(t, err)

	_, _, err = sel.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateClosed, sel.BreakerState(0))
}

func TestConnect_Pacing(t *testing.T) {
	d := newFakeDialer("h1", "h2", "h3")
	cfg := Config{AttemptsPerSecond: 20}
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2,amqp://h3"), d.dial, cfg)
	require.NoError(t, err)

	start := time.Now()
	_, _, err = sel.Connect(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestConnect_PacingHonoursContext(t *testing.T) {
	d := newFakeDialer("h1", "h2")
	cfg := Config{AttemptsPerSecond: 0.1}
	sel, err := NewSelector(mustList(t, "amqp://h1,amqp://h2"), d.dial, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = sel.Connect(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []string{"h1"}, d.calls)
}

func TestBreakerState_OutOfRange(t *testing.T) {
	d := newFakeDialer()
	sel, err := NewSelector(mustList(t, "amqp://h1"), d.dial, noBreakers())
	require.NoError(t, err)

	assert.Equal(t, gobreaker.StateClosed, sel.BreakerState(0))
	assert.Equal(t, gobreaker.StateClosed, sel.BreakerState(-1))
	assert.Equal(t, 1, sel.Addresses().Len())
}
