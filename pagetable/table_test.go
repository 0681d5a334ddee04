package pagetable

import (
	"testing"

	"github.com/region-gc/pagecache/page"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertAndLookup(t *testing.T) {
	tbl := New(false)
	p := page.New(page.ClassSmall, 0x2000, 2<<20)

	tbl.Insert(p)

	got, ok := tbl.Lookup(0x2000)
	require.True(t, ok)
	require.Same(t, p, got)
	require.Equal(t, 1, tbl.Len())
}

func TestTable_LookupMiss(t *testing.T) {
	tbl := New(false)
	_, ok := tbl.Lookup(0x9999)
	require.False(t, ok)
}

func TestTable_Remove(t *testing.T) {
	tbl := New(false)
	p := page.New(page.ClassSmall, 0x2000, 2<<20)
	tbl.Insert(p)

	tbl.Remove(0x2000)

	_, ok := tbl.Lookup(0x2000)
	require.False(t, ok)
	require.Equal(t, 0, tbl.Len())
}

func TestTable_InsertOverwritesSameAddress(t *testing.T) {
	tbl := New(false)
	first := page.New(page.ClassSmall, 0x2000, 2<<20)
	second := page.New(page.ClassMedium, 0x2000, 32<<20)

	tbl.Insert(first)
	tbl.Insert(second)

	got, ok := tbl.Lookup(0x2000)
	require.True(t, ok)
	require.Same(t, second, got)
	require.Equal(t, 1, tbl.Len())
}
