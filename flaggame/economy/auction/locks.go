package auction

import "sync"

// keyedLocks serializes state-changing operations per key (auction ID or
// pair key) so unrelated auctions never block one another.
type keyedLocks struct {
	locks sync.Map // int64 -> *sync.Mutex
}

func (k *keyedLocks) lock(key int64) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
