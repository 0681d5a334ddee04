package allocator

import (
	"testing"

	"github.com/region-gc/pagecache/page"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsEmptyCacheOverBoundedPhysical(t *testing.T) {
	a := New(16 << 20)

	require.Equal(t, 0, a.Cache.CountSmall())
	require.Equal(t, 0, a.Physical.Allocated())
	require.NotNil(t, a.Logger())
}

func TestCreatePage_AdvancesAddressSpace(t *testing.T) {
	a := New(16 << 20)

	p1, err := a.CreatePage(page.ClassSmall, 2<<20)
	require.NoError(t, err)
	p2, err := a.CreatePage(page.ClassSmall, 2<<20)
	require.NoError(t, err)

	require.NotEqual(t, p1.Addr, p2.Addr)
	require.False(t, p1.Mapped())
}

func TestCreatePage_PropagatesExhaustion(t *testing.T) {
	a := New(1 << 20)

	_, err := a.CreatePage(page.ClassSmall, 2<<20)

	require.Error(t, err)
}

func TestIncreaseUsed_CreditsReclaimedOnlyWhenAsked(t *testing.T) {
	a := New(16 << 20)

	a.IncreaseUsed(1024, false)
	a.IncreaseUsed(2048, true)

	require.Equal(t, 3072, a.UsedBytes())
	require.Equal(t, 2048, a.ReclaimedBytes())
}

func TestDetach_FreesPhysicalAndParksShell(t *testing.T) {
	a := New(16 << 20)
	p, err := a.CreatePage(page.ClassSmall, 2<<20)
	require.NoError(t, err)
	a.MapPage(p)
	a.Physical.Unmap(p)

	a.Detach(p)

	require.Equal(t, 1, a.DetachedCount())
	require.False(t, p.Physical().IsBacked())
}

func TestReleasePage_InsertsIntoCache(t *testing.T) {
	a := New(64 << 20)
	p, err := a.CreatePage(page.ClassMedium, 32<<20)
	require.NoError(t, err)
	a.MapPage(p)

	a.ReleasePage(p, false)

	require.Equal(t, 1, a.Cache.CountMedium())
}

func TestReleasePage_DebitsUsedBytesByReclaimedFlag(t *testing.T) {
	a := New(16 << 20)

	p1, err := a.CreatePage(page.ClassSmall, 2<<20)
	require.NoError(t, err)
	a.IncreaseUsed(p1.Size, true)

	p2, err := a.CreatePage(page.ClassSmall, 2<<20)
	require.NoError(t, err)
	a.IncreaseUsed(p2.Size, false)

	require.Equal(t, 4<<20, a.UsedBytes())
	require.Equal(t, 2<<20, a.ReclaimedBytes())

	a.ReleasePage(p1, true)
	require.Equal(t, 2<<20, a.UsedBytes())
	require.Equal(t, 0, a.ReclaimedBytes())

	a.ReleasePage(p2, false)
	require.Equal(t, 0, a.UsedBytes())
	require.Equal(t, 0, a.ReclaimedBytes())
}
