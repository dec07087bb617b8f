package utils

import "sync"

// KeyedMutex is a set of FIFO locks, one per key. Waiters on a key are woken strictly in
// the order they called Lock. Entries are dropped once nobody holds or waits on a key, so
// the map only grows with the number of keys in flight.
type KeyedMutex struct {
	mu     sync.Mutex
	queues map[string]*keyedQueue
}

// keyedQueue is owned by whoever holds the key; waiters each get their own channel.
type keyedQueue struct {
	waiters []chan struct{}
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{queues: make(map[string]*keyedQueue)}
}

// Lock blocks until the lock for key is held and returns the matching unlock func.
// Calling unlock more than once is a no-op.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	q, busy := k.queues[key]
	if !busy {
		q = &keyedQueue{}
		k.queues[key] = q
		k.mu.Unlock()
	} else {
		turn := make(chan struct{})
		q.waiters = append(q.waiters, turn)
		k.mu.Unlock()
		<-turn
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, q) })
	}
}

// release hands the key to the oldest waiter, or forgets it when nobody waits.
func (k *KeyedMutex) release(key string, q *keyedQueue) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(q.waiters) == 0 {
		delete(k.queues, key)
		return
	}
	next := q.waiters[0]
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]
	close(next)
}

// Len returns the number of keys currently locked or waited on.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queues)
}

