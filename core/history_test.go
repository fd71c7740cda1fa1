package core

import "testing"

func historyOf(labels ...string) *taskHistory {
	h := newTaskHistory(3)
	for _, l := range labels {
		h.Add(HistoryRecord{TaskData: TaskData{Label: l}})
	}
	return h
}

func labelsOf(records []HistoryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}

func TestTaskHistory_Recent(t *testing.T) {
	tests := []struct {
		name  string
		added []string
		limit int
		want  []string
	}{
		{name: "empty", added: nil, limit: 0, want: nil},
		{name: "partial", added: []string{"a", "b"}, limit: 0, want: []string{"b", "a"}},
		{name: "wraps", added: []string{"a", "b", "c", "d", "e"}, limit: 0, want: []string{"e", "d", "c"}},
		{name: "limited", added: []string{"a", "b", "c", "d"}, limit: 2, want: []string{"d", "c"}},
		{name: "limit above count", added: []string{"a"}, limit: 10, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := labelsOf(historyOf(tt.added...).Recent(tt.limit))
			if len(got) != len(tt.want) {
				t.Fatalf("Recent = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Recent = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTaskHistory_Last(t *testing.T) {
	h := historyOf()
	if _, ok := h.Last(); ok {
		t.Fatal("Last on empty history reported a record")
	}

	h = historyOf("a", "b", "c", "d")
	last, ok := h.Last()
	if !ok || last.Label != "d" {
		t.Fatalf("Last = %q, %v; want d", last.Label, ok)
	}
}

func TestTaskHistory_DefaultCapacity(t *testing.T) {
	h := newTaskHistory(0)
	if len(h.items) != defaultHistoryCapacity {
		t.Fatalf("capacity = %d, want %d", len(h.items), defaultHistoryCapacity)
	}
}
