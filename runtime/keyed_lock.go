package runtime

import (
	"hash/fnv"
	"sort"
	"sync"

	"floorlink/domain"
)

const lockStripes = 64

// keyedLocks serializes handlers per participant id with striped mutexes.
// Stripes are always acquired in ascending index order so a handler that
// touches two ids (responder actions) cannot deadlock against another.
type keyedLocks struct {
	stripes [lockStripes]sync.Mutex
}

// lock acquires the stripes covering the given ids and returns the matching
// unlock function. Duplicate stripes are locked once.
func (k *keyedLocks) lock(ids ...domain.ParticipantID) (unlock func()) {
	seen := make(map[int]struct{}, len(ids))
	var indices []int
	for _, id := range ids {
		idx := stripeIndex(id)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		k.stripes[idx].Lock()
	}
	return func() {
		for i := len(indices) - 1; i >= 0; i-- {
			k.stripes[indices[i]].Unlock()
		}
	}
}

func stripeIndex(id domain.ParticipantID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % lockStripes)
}
