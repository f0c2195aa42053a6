package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_FinalDeliveredTwiceDoesNotPanic(t *testing.T) {
	key := "session-final-twice"
	stream := Register(key)
	defer Unregister(key, stream)

	assert.NotPanics(t, func() {
		Publish(key, "last chunk", true)
		Publish(key, "last chunk", true)
	})

	select {
	case <-stream.Done:
	default:
		t.Fatal("expected Done to be closed after a final publish")
	}
}

func TestPublish_UnknownKeyIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		Publish("never-registered", "chunk", true)
	})
}

func TestUnregister_StaleStreamKeepsNewerRegistration(t *testing.T) {
	key := "session-reconnect"

	first := Register(key)
	second := Register(key)
	defer Unregister(key, second)

	// The first subscriber's cleanup fires after it was replaced.
	Unregister(key, first)

	Publish(key, "hello", false)
	select {
	case msg := <-second.Messages:
		assert.Equal(t, "hello", msg)
	default:
		t.Fatal("expected the newer subscriber to stay registered")
	}
}

func TestRegister_ReplacementFinishesPreviousStream(t *testing.T) {
	key := "session-replaced"

	first := Register(key)
	second := Register(key)
	defer Unregister(key, second)

	select {
	case <-first.Done:
	default:
		t.Fatal("expected the replaced stream to be finished")
	}
}

func TestPublish_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	key := "session-full"
	stream := Register(key)
	defer Unregister(key, stream)

	for i := 0; i < cap(stream.Messages)+5; i++ {
		Publish(key, "chunk", false)
	}
	require.Len(t, stream.Messages, cap(stream.Messages))
}
