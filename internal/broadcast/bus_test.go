package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	name string
	log  *[]string
	got  []Signal
}

func (r *recorder) Notify(_ context.Context, s Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
	if r.log != nil {
		*r.log = append(*r.log, r.name)
	}
}

func (r *recorder) signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.got...)
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	first := &recorder{name: "badge", log: &order}
	second := &recorder{name: "cart", log: &order}
	b.Subscribe(TopicCart, "s1", first)
	b.Subscribe(TopicCart, "s1", second)

	b.Publish(context.Background(), Signal{Topic: TopicCart, Session: "s1"})

	assert.Equal(t, []string{"badge", "cart"}, order)
	require.Len(t, first.signals(), 1)
	assert.False(t, first.signals()[0].At.IsZero())
}

func TestBus_FiltersByTopicAndSession(t *testing.T) {
	b := New()
	mine := &recorder{}
	other := &recorder{}
	all := &recorder{}
	auth := &recorder{}
	b.Subscribe(TopicCart, "s1", mine)
	b.Subscribe(TopicCart, "s2", other)
	b.Subscribe(TopicCart, "", all)
	b.Subscribe(TopicAuth, "s1", auth)

	b.Publish(context.Background(), Signal{Topic: TopicCart, Session: "s1"})

	assert.Len(t, mine.signals(), 1)
	assert.Empty(t, other.signals())
	assert.Len(t, all.signals(), 1)
	assert.Empty(t, auth.signals())
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	b := New()
	r := &recorder{}
	keep := &recorder{}
	unsub := b.Subscribe(TopicAuth, "s1", r)
	b.Subscribe(TopicAuth, "s1", keep)

	unsub()
	unsub()
	assert.Equal(t, 1, b.Len())

	b.Publish(context.Background(), Signal{Topic: TopicAuth, Session: "s1"})
	assert.Empty(t, r.signals())
	assert.Len(t, keep.signals(), 1)
}

func TestBus_ObserverMayUnsubscribeDuringDelivery(t *testing.T) {
	b := New()
	var unsub func()
	calls := 0
	unsub = b.Subscribe(TopicCart, "", ObserverFunc(func(context.Context, Signal) {
		calls++
		unsub()
	}))

	b.Publish(context.Background(), Signal{Topic: TopicCart})
	b.Publish(context.Background(), Signal{Topic: TopicCart})
	assert.Equal(t, 1, calls)
}

func TestBus_TapSeesPublishNotDeliver(t *testing.T) {
	b := New()
	var tapped []Topic
	b.Tap(func(_ context.Context, s Signal) { tapped = append(tapped, s.Topic) })

	b.Publish(context.Background(), Signal{Topic: TopicCart})
	b.Deliver(context.Background(), Signal{Topic: TopicAuth})

	assert.Equal(t, []Topic{TopicCart}, tapped)
}

func TestRedisRelay_CrossInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	busA, busB := New(), New()
	relayA := NewRedisRelay(busA, newClient(), "test:signals")
	relayB := NewRedisRelay(busB, newClient(), "test:signals")
	assert.NotEqual(t, relayA.Origin(), relayB.Origin())

	readyA, readyB := make(chan struct{}), make(chan struct{})
	go func() { _ = relayA.Run(ctx, readyA) }()
	go func() { _ = relayB.Run(ctx, readyB) }()
	<-readyA
	<-readyB

	onA := &recorder{}
	onB := &recorder{}
	busA.Subscribe(TopicAuth, "s1", onA)
	busB.Subscribe(TopicAuth, "s1", onB)

	busA.Publish(ctx, Signal{Topic: TopicAuth, Session: "s1"})

	require.Eventually(t, func() bool { return len(onB.signals()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, relayA.Origin(), onB.signals()[0].Origin)

	// The publishing instance must not receive its own echo.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, onA.signals(), 1)
}
