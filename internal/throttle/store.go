package throttle

import (
	"sync"

	"github.com/ecanbay/sendgate/internal/domain"
)

// pendingStore owns the FIFO queue of accepted messages plus the dedup
// index of outstanding nonces. A nonce stays in the index while its
// message is queued or dequeued-but-not-finalized. The two structures
// are individually concurrent-safe; nothing is atomic across them, so a
// clear racing a concurrent pop may still let that one message dispatch.
type pendingStore struct {
	mu    sync.Mutex
	queue []*domain.OutgoingMessage

	outstanding sync.Map // nonce -> *domain.OutgoingMessage
}

func newPendingStore() *pendingStore {
	return &pendingStore{}
}

// register claims a nonce in the dedup index. It returns false when the
// nonce is already outstanding.
func (s *pendingStore) register(msg *domain.OutgoingMessage) bool {
	_, loaded := s.outstanding.LoadOrStore(msg.Nonce, msg)
	return !loaded
}

func (s *pendingStore) push(msg *domain.OutgoingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, msg)
}

func (s *pendingStore) pop() (*domain.OutgoingMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, false
	}

	msg := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return msg, true
}

// release removes a nonce from the dedup index, returning false when it
// was not outstanding.
func (s *pendingStore) release(nonce int64) bool {
	_, loaded := s.outstanding.LoadAndDelete(nonce)
	return loaded
}

func (s *pendingStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *pendingStore) clear() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()

	s.outstanding.Range(func(key, _ any) bool {
		s.outstanding.Delete(key)
		return true
	})
}
