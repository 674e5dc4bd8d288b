package physics

import "testing"

func TestArenaLifecycle(t *testing.T) {
	cases := []struct {
		name   string
		insert int
		remove []int
	}{
		{"single", 1, []int{0}},
		{"three_remove_middle", 3, []int{1}},
		{"none_removed", 2, nil},
		{"remove_all", 3, []int{0, 1, 2}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var a arena[string]
			ids := make([]uint64, 0, c.insert)
			for i := 0; i < c.insert; i++ {
				ids = append(ids, a.insert("v"))
			}
			for _, i := range c.remove {
				if !a.remove(ids[i]) {
					t.Fatalf("remove(%d) should succeed for a live id", i)
				}
				if _, ok := a.get(ids[i]); ok {
					t.Fatalf("get after remove should fail")
				}
				if a.remove(ids[i]) {
					t.Fatalf("second remove should fail")
				}
			}
			if want := c.insert - len(c.remove); a.len() != want {
				t.Fatalf("expected %d live, got %d", want, a.len())
			}
		})
	}
}

func TestArenaReuseBumpsGeneration(t *testing.T) {
	var a arena[int]
	first := a.insert(1)
	if !a.remove(first) {
		t.Fatalf("remove failed")
	}
	second := a.insert(2)

	if slotIndex(first) != slotIndex(second) {
		t.Fatalf("expected slot reuse, got %d and %d", slotIndex(first), slotIndex(second))
	}
	if first == second {
		t.Fatalf("reused slot returned the removed id")
	}
	if _, ok := a.get(first); ok {
		t.Fatalf("stale id resolved to the new value")
	}
	v, ok := a.get(second)
	if !ok || *v != 2 {
		t.Fatalf("expected 2, got %v ok=%v", v, ok)
	}
}

func TestArenaZeroIDInvalid(t *testing.T) {
	var a arena[int]
	a.insert(7)
	if _, ok := a.get(0); ok {
		t.Fatalf("zero id must never resolve")
	}
	if BodyID(0).Valid() || ShapeID(0).Valid() {
		t.Fatalf("zero ids must not be valid")
	}
}
