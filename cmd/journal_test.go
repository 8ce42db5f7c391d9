package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"anonswap/pkg/journal"
)

func TestNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := func(id string, offset time.Duration) journal.Entry {
		return journal.Entry{OrderID: id, CreatedAt: base.Add(offset)}
	}

	tests := []struct {
		name    string
		entries []journal.Entry
		want    []string
	}{
		{"empty", nil, []string{}},
		{"append order reversed", []journal.Entry{entry("a", 0), entry("b", time.Minute), entry("c", time.Hour)}, []string{"c", "b", "a"}},
		{"out of order input", []journal.Entry{entry("b", time.Minute), entry("c", time.Hour), entry("a", 0)}, []string{"c", "b", "a"}},
		{"equal times keep append order", []journal.Entry{entry("a", 0), entry("b", 0), entry("c", time.Second)}, []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, e := range newestFirst(tt.entries) {
				got = append(got, e.OrderID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewestFirstLeavesInputUntouched(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := []journal.Entry{{OrderID: "old", CreatedAt: base}, {OrderID: "new", CreatedAt: base.Add(time.Hour)}}

	out := newestFirst(in)

	assert.Equal(t, "new", out[0].OrderID)
	assert.Equal(t, "old", in[0].OrderID)
}
