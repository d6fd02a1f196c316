package thumbnail

import "sync"

// Item is a video waiting for a preview.
type Item struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	// Locator is what the FrameSource opens, normally the absolute path.
	Locator  string `json:"-"`
}

// Queue is a FIFO of items. An item whose name is already queued is not
// added again.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	queued map[string]struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{queued: make(map[string]struct{})}
}

// Push appends items and returns how many were added.
func (q *Queue) Push(items ...Item) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, it := range items {
		if _, dup := q.queued[it.Name]; dup {
			continue
		}
		q.queued[it.Name] = struct{}{}
		q.items = append(q.items, it)
		added++
	}
	return added
}

// Pop removes and returns the head of the queue.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, false
	}
	it := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]
	delete(q.queued, it.Name)
	return it, true
}

// Clear drops every queued item and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	q.queued = make(map[string]struct{})
	return n
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
