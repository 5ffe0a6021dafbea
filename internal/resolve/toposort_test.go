package resolve

import "testing"

func TestTopoSortNodes_ParentsFirst(t *testing.T) {
	// 2 depends on 1, 1 depends on 0.
	order, err := topoSortNodes(3, func(i int) []int {
		switch i {
		case 1:
			return []int{0}
		case 2:
			return []int{1}
		default:
			return nil
		}
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	exp := []int{0, 1, 2}
	if len(order) != len(exp) {
		t.Fatalf("expected %v, got %v", exp, order)
	}

	for i := range exp {
		if order[i] != exp[i] {
			t.Fatalf("expected %v, got %v", exp, order)
		}
	}
}

func TestTopoSortNodes_Deterministic(t *testing.T) {
	// Two roots and two leaves: smallest available index always wins.
	deps := func(i int) []int {
		switch i {
		case 2:
			return []int{0}
		case 3:
			return []int{1}
		default:
			return nil
		}
	}

	first, err := topoSortNodes(4, deps)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := topoSortNodes(4, deps)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("order not deterministic: %v vs %v", first, again)
			}
		}
	}
}

func TestTopoSortNodes_Cycle(t *testing.T) {
	_, err := topoSortNodes(2, func(i int) []int {
		if i == 0 {
			return []int{1}
		}

		return []int{0}
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}
