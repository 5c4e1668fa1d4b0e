package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryArenaBoundsCheck(t *testing.T) {
	m := NewMemory([]byte{1, 2, 3, 4}, 4)
	v, err := m.Read(0, 4)
	require.Nil(t, err)
	assert.NotEqual(t, int64(0), v)

	_, err = m.Read(2, 4)
	assert.Same(t, ErrIllegalMemAccess, err)
}

func TestMemoryMallocFreeTagging(t *testing.T) {
	m := NewMemory(nil, 0)
	ptr, err := m.Malloc(4)
	require.Nil(t, err)
	assert.Equal(t, int64(1)<<ptrOffset, ptr)

	require.Nil(t, m.Write(ptr, 4, 0x11223344))
	v, err := m.Read(ptr, 4)
	require.Nil(t, err)
	assert.Equal(t, int64(0x11223344), v)

	require.Nil(t, m.Free(ptr))
	_, err = m.Read(ptr, 4)
	assert.Same(t, ErrIllegalMemAccess, err)
}

func TestMemoryFreeUnknownChunkTraps(t *testing.T) {
	m := NewMemory(nil, 0)
	assert.Same(t, ErrNativeError, m.Free(int64(5)<<ptrOffset))
}

func TestMemoryGrowArena(t *testing.T) {
	m := NewMemory([]byte{1}, 1)
	_, err := m.Read(1, 1)
	assert.Same(t, ErrIllegalMemAccess, err)

	m.GrowArena(8)
	v, err := m.Read(1, 1)
	require.Nil(t, err)
	assert.Equal(t, int64(0), v)
}
