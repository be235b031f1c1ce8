package mesh

import (
	"sort"
	"testing"
)

func TestDynamicFacesStaging(t *testing.T) {
	d := NewDynamicFaces()

	d.Insert(1)
	d.Insert(2)
	if d.Len() != 0 {
		t.Errorf("expected 0 committed before commit, got %d", d.Len())
	}
	if !d.HasUncommitted() {
		t.Error("expected uncommitted members")
	}
	if !d.Contains(1) || !d.Contains(2) {
		t.Error("Contains must cover staged members")
	}

	d.Commit()
	if d.Len() != 2 {
		t.Errorf("expected 2 committed after commit, got %d", d.Len())
	}
	if d.HasUncommitted() {
		t.Error("expected no uncommitted members after commit")
	}

	// Re-inserting a committed member stays a no-op.
	d.Insert(1)
	if d.HasUncommitted() {
		t.Error("inserting a committed member must not stage it")
	}
}

func TestDynamicFacesForEachSkipsUncommitted(t *testing.T) {
	d := NewDynamicFaces()
	d.InsertSlice([]int{1, 2, 3})
	d.Commit()
	d.Insert(4)

	var seen []int
	d.ForEach(func(f int) { seen = append(seen, f) })
	sort.Ints(seen)

	if len(seen) != 3 {
		t.Fatalf("expected 3 committed members, got %v", seen)
	}
	for i, want := range []int{1, 2, 3} {
		if seen[i] != want {
			t.Errorf("member %d: expected %d, got %d", i, want, seen[i])
		}
	}
}

func TestDynamicFacesFilter(t *testing.T) {
	d := NewDynamicFaces()
	d.InsertSlice([]int{1, 2, 3, 4})
	d.Commit()
	d.Insert(5)
	d.Insert(6)

	d.Filter(func(f int) bool { return f%2 == 0 })

	if d.Contains(1) || d.Contains(3) || d.Contains(5) {
		t.Error("filter must drop failing members of both subsets")
	}
	if !d.Contains(2) || !d.Contains(4) || !d.Contains(6) {
		t.Error("filter must keep passing members of both subsets")
	}
}

func TestDynamicFacesReset(t *testing.T) {
	d := NewDynamicFaces()
	d.InsertSlice([]int{1, 2})
	d.Commit()
	d.Insert(3)

	d.Reset()
	if d.Len() != 0 || d.HasUncommitted() {
		t.Error("reset must empty both subsets")
	}
}
