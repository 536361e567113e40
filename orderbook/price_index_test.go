package orderbook

import "testing"

func TestPriceIndexInsertGet(t *testing.T) {
	idx := newPriceIndex()
	idx.insert(100, 0)
	if slot, ok := idx.get(100); !ok || slot != 0 {
		t.Errorf("get(100) = %d,%v, want 0,true", slot, ok)
	}
	if _, ok := idx.get(50); ok {
		t.Error("get on absent price should report false")
	}
	idx.insert(200, 1)
	if idx.len() != 2 {
		t.Errorf("len = %d, want 2", idx.len())
	}
}

func TestPriceIndexOrderedIteration(t *testing.T) {
	idx := newPriceIndex()
	for i, p := range []int64{500, 100, 300, 200, 400} {
		idx.insert(p, i)
	}

	var up []int64
	idx.ascend(func(price int64, slot int) bool {
		up = append(up, price)
		return true
	})
	want := []int64{100, 200, 300, 400, 500}
	for i := range want {
		if up[i] != want[i] {
			t.Fatalf("ascend order = %v, want %v", up, want)
		}
	}

	var down []int64
	idx.descend(func(price int64, slot int) bool {
		down = append(down, price)
		return true
	})
	for i := range want {
		if down[i] != want[len(want)-1-i] {
			t.Fatalf("descend order = %v, want reverse of %v", down, want)
		}
	}
}

func TestPriceIndexEarlyStop(t *testing.T) {
	idx := newPriceIndex()
	for i, p := range []int64{10, 20, 30} {
		idx.insert(p, i)
	}
	visited := 0
	idx.ascend(func(price int64, slot int) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited %d levels after stop, want 1", visited)
	}
}

func TestPriceIndexEmpty(t *testing.T) {
	idx := newPriceIndex()
	called := false
	idx.ascend(func(int64, int) bool { called = true; return true })
	idx.descend(func(int64, int) bool { called = true; return true })
	if called {
		t.Error("iteration over empty index should not call fn")
	}
}

func TestPriceIndexLargeSequence(t *testing.T) {
	idx := newPriceIndex()
	// insertion order hostile to naive BSTs
	for i := 0; i < 4096; i++ {
		idx.insert(int64(i), i)
	}
	if idx.len() != 4096 {
		t.Fatalf("len = %d, want 4096", idx.len())
	}
	prev := int64(-1)
	count := 0
	idx.ascend(func(price int64, slot int) bool {
		if price <= prev {
			t.Fatalf("out of order: %d after %d", price, prev)
		}
		if int64(slot) != price {
			t.Fatalf("slot %d for price %d", slot, price)
		}
		prev = price
		count++
		return true
	})
	if count != 4096 {
		t.Errorf("visited %d, want 4096", count)
	}
}
