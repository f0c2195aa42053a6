package sse

import (
	"sync"

	"bloom-planner/api/logger"

	"go.uber.org/zap"
)

// ClientStream is one dashboard subscriber following a session's records.
type ClientStream struct {
	Messages chan string
	Done     chan struct{}
	once     sync.Once
}

// finish closes Done exactly once. Final events can be redelivered, so the
// close must tolerate duplicates.
func (s *ClientStream) finish() {
	s.once.Do(func() { close(s.Done) })
}

var (
	connections = make(map[string]*ClientStream)
	mu          sync.Mutex
)

// Register attaches a subscriber to a session key, replacing any previous
// one for the same key. The replaced subscriber sees Done so it does not
// linger on a dead stream.
func Register(sessionKey string) *ClientStream {
	stream := &ClientStream{
		Messages: make(chan string, 100),
		Done:     make(chan struct{}),
	}
	mu.Lock()
	if old, ok := connections[sessionKey]; ok {
		old.finish()
	}
	connections[sessionKey] = stream
	mu.Unlock()
	logger.Get().Debug("stream registered", zap.String("session_key", sessionKey))
	return stream
}

// Unregister detaches the given subscriber. The pointer check keeps a stale
// connection's deferred cleanup from deleting a newer registration for the
// same key.
func Unregister(sessionKey string, stream *ClientStream) {
	mu.Lock()
	if connections[sessionKey] == stream {
		delete(connections, sessionKey)
	}
	mu.Unlock()
	logger.Get().Debug("stream unregistered", zap.String("session_key", sessionKey))
}

// Publish forwards a chunk to the session's subscriber, if any. When final
// is set the subscriber's Done channel is closed after delivery. A full
// buffer drops the chunk rather than blocking the pipeline.
func Publish(sessionKey, chunk string, final bool) {
	mu.Lock()
	stream, ok := connections[sessionKey]
	mu.Unlock()
	if !ok {
		return
	}

	select {
	case stream.Messages <- chunk:
	default:
		logger.Get().Warn("stream buffer full, dropping chunk",
			zap.String("session_key", sessionKey))
	}

	if final {
		stream.finish()
	}
}
