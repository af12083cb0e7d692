package connector

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityMapResolve(t *testing.T) {
	m := NewIdentityMap(map[int]string{4: "SR0162"})

	code, ok := m.Resolve(4)
	assert.True(t, ok)
	assert.Equal(t, "SR0162", code)

	_, ok = m.Resolve(99)
	assert.False(t, ok)
}

func TestIdentityMapUpdateIsUpsert(t *testing.T) {
	m := NewIdentityMap(nil)

	m.Update(4, "SR0162")
	m.Update(4, "SR0201")

	code, ok := m.Resolve(4)
	assert.True(t, ok)
	assert.Equal(t, "SR0201", code)
}

func TestIdentityMapSnapshotIsCopy(t *testing.T) {
	m := NewIdentityMap(map[int]string{4: "SR0162"})

	snap := m.Snapshot()
	snap[4] = "mutated"

	code, _ := m.Resolve(4)
	assert.Equal(t, "SR0162", code)
}

func TestIdentityMapConcurrentAccess(t *testing.T) {
	m := NewIdentityMap(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Update(i, fmt.Sprintf("SR%04d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			m.Resolve(i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Snapshot(), 50)
}
