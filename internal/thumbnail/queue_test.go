package thumbnail

import "testing"

func TestQueueFIFOAndDedupe(t *testing.T) {
	q := NewQueue()
	added := q.Push(Item{Name: "a"}, Item{Name: "b"}, Item{Name: "a"})
	if added != 2 || q.Len() != 2 {
		t.Fatalf("added=%d len=%d, want 2/2", added, q.Len())
	}
	if q.Push(Item{Name: "b"}) != 0 {
		t.Error("duplicate accepted")
	}

	first, ok := q.Pop()
	if !ok || first.Name != "a" {
		t.Fatalf("Pop = %+v, %v", first, ok)
	}
	// Popped names can be queued again.
	if q.Push(Item{Name: "a"}) != 1 {
		t.Error("re-queue after pop rejected")
	}

	second, _ := q.Pop()
	third, _ := q.Pop()
	if second.Name != "b" || third.Name != "a" {
		t.Errorf("order = %s, %s", second.Name, third.Name)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on empty queue returned an item")
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Push(Item{Name: "a"}, Item{Name: "b"})
	if n := q.Clear(); n != 2 {
		t.Errorf("Clear = %d, want 2", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after clear", q.Len())
	}
	if q.Push(Item{Name: "a"}) != 1 {
		t.Error("push after clear rejected")
	}
}
