package grain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWaitListNarrow(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name          string
		list          waitList
		resolved      string
		wantSatisfied []WaitRecord
		wantWaiting   waitList
	}{
		{
			name:     "empty",
			resolved: "a",
		},
		{
			name:          "single satisfied",
			list:          waitList{{ID: "x", Unresolved: []string{"a"}}},
			resolved:      "a",
			wantSatisfied: []WaitRecord{{ID: "x", Unresolved: []string{"a"}}},
		},
		{
			name:        "unrelated survives untouched",
			list:        waitList{{ID: "x", Unresolved: []string{"b"}}},
			resolved:    "a",
			wantWaiting: waitList{{ID: "x", Unresolved: []string{"b"}}},
		},
		{
			name:        "partial narrowing",
			list:        waitList{{ID: "x", Unresolved: []string{"a", "b", "a"}}},
			resolved:    "a",
			wantWaiting: waitList{{ID: "x", Unresolved: []string{"b"}}},
		},
		{
			name:          "duplicates collapse",
			list:          waitList{{ID: "x", Unresolved: []string{"a", "a", "a"}}},
			resolved:      "a",
			wantSatisfied: []WaitRecord{{ID: "x", Unresolved: []string{"a", "a", "a"}}},
		},
		{
			name: "order preserved",
			list: waitList{
				{ID: "1", Unresolved: []string{"a"}},
				{ID: "2", Unresolved: []string{"b", "a"}},
				{ID: "3", Unresolved: []string{"a"}},
				{ID: "4", Unresolved: []string{"c"}},
			},
			resolved: "a",
			wantSatisfied: []WaitRecord{
				{ID: "1", Unresolved: []string{"a"}},
				{ID: "3", Unresolved: []string{"a"}},
			},
			wantWaiting: waitList{
				{ID: "2", Unresolved: []string{"b"}},
				{ID: "4", Unresolved: []string{"c"}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			satisfied, waiting := tc.list.narrow(tc.resolved)
			if diff := cmp.Diff(tc.wantSatisfied, satisfied); diff != "" {
				t.Errorf("satisfied mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantWaiting, waiting); diff != "" {
				t.Errorf("waiting mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWaitListNarrowDoesNotAlias(t *testing.T) {
	t.Parallel()
	list := waitList{{ID: "x", Unresolved: []string{"a", "b"}}}
	_, waiting := list.narrow("a")
	waiting[0].Unresolved[0] = "changed"
	if diff := cmp.Diff([]string{"a", "b"}, list[0].Unresolved); diff != "" {
		t.Errorf("original mutated (-want +got):\n%s", diff)
	}
}

func TestWaitListSnapshot(t *testing.T) {
	t.Parallel()
	list := waitList{{ID: "x", Unresolved: []string{"a"}}}
	snap := list.snapshot()
	snap[0].Unresolved[0] = "changed"
	if list[0].Unresolved[0] != "a" {
		t.Errorf("snapshot aliases the wait list")
	}
}
