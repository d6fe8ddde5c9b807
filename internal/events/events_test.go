package events

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTopicDeliversInOrder(t *testing.T) {
	topic := NewTopic[int]("numbers")
	var got []string

	topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })
	topic.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "numbers", topic.Name())
}

func TestUnsubscribe(t *testing.T) {
	topic := NewTopic[string]("s")
	var a, b int

	unsubA := topic.Subscribe(func(string) { a++ })
	topic.Subscribe(func(string) { b++ })

	topic.Publish("x")
	unsubA()
	unsubA()
	topic.Publish("y")

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() { NewTopic[int]("empty").Publish(1) })
}

func TestSubscribeDuringPublish(t *testing.T) {
	topic := NewTopic[int]("nested")
	calls := 0
	topic.Subscribe(func(int) {
		calls++
		topic.Subscribe(func(int) { calls++ })
	})

	topic.Publish(1)
	assert.Equal(t, 1, calls)
}

func TestBusTopicsAreTyped(t *testing.T) {
	bus := NewBus()
	user := uuid.New()

	var got ProfileUpdated
	bus.ProfileUpdated.Subscribe(func(e ProfileUpdated) { got = e })
	bus.ProfileUpdated.Publish(ProfileUpdated{UserID: user})

	assert.Equal(t, user, got.UserID)
}

func TestConcurrentPublish(t *testing.T) {
	topic := NewTopic[int]("c")
	var mu sync.Mutex
	sum := 0
	topic.Subscribe(func(v int) {
		mu.Lock()
		sum += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			topic.Publish(v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1275, sum)
}
