package keyring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseKeys(" a, ,b ,"))
	assert.Nil(t, ParseKeys(""))
}

func TestRing_RotatesPastBlocked(t *testing.T) {
	r := New([]string{"k1", "k2", "k3", "k2"})
	assert.Equal(t, 3, r.Available())

	k, ok := r.Current()
	assert.True(t, ok)
	assert.Equal(t, "k1", k)

	r.MarkBlocked("k1")
	k, ok = r.Rotate()
	assert.True(t, ok)
	assert.Equal(t, "k2", k)

	r.MarkBlocked("k3")
	k, ok = r.Rotate()
	assert.True(t, ok)
	assert.Equal(t, "k2", k, "only k2 is left so rotation lands on it again")

	r.MarkBlocked("k2")
	_, ok = r.Rotate()
	assert.False(t, ok)
	_, ok = r.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Available())
}

func TestRing_CurrentSkipsBlockedWithoutRotate(t *testing.T) {
	r := New([]string{"k1", "k2"})
	r.MarkBlocked("k1")
	k, ok := r.Current()
	assert.True(t, ok)
	assert.Equal(t, "k2", k)
}

func TestRing_Empty(t *testing.T) {
	r := New(nil)
	_, ok := r.Current()
	assert.False(t, ok)
	_, ok = r.Rotate()
	assert.False(t, ok)

	var nilRing *Ring
	_, ok = nilRing.Current()
	assert.False(t, ok)
}

func TestRing_ConcurrentUse(t *testing.T) {
	r := New([]string{"k1", "k2", "k3"})
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%8 == 0 {
				r.MarkBlocked("k1")
			}
			r.Current()
			r.Rotate()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 2, r.Available())
}
