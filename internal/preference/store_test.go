package preference

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docvoice/internal/synth"
)

func TestStore_DefaultIsDirect(t *testing.T) {
	s := NewStore()
	assert.Equal(t, synth.IDDirect, s.Get("nobody"))
	assert.Equal(t, 0, s.Len())
}

func TestStore_SetAndGet(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set("42", synth.IDEnhanced))
	assert.Equal(t, synth.IDEnhanced, s.Get("42"))

	require.NoError(t, s.Set("42", "gtts"))
	assert.Equal(t, synth.IDDirect, s.Get("42"))
}

func TestStore_AliasStoredCanonical(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Set("u", "groq"))
	assert.Equal(t, synth.IDEnhanced, s.Get("u"))
}

func TestStore_RejectsUnknown(t *testing.T) {
	s := NewStore()
	err := s.Set("u", "polly")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Equal(t, synth.IDDirect, s.Get("u"))
}

func TestStore_ConcurrentUsersIndependent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := synth.IDDirect
			if i%2 == 1 {
				id = synth.IDEnhanced
			}
			user := fmt.Sprintf("user-%d", i)
			for range 50 {
				require.NoError(t, s.Set(user, id))
				_ = s.Get(user)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Len())
	for i := range 100 {
		want := synth.IDDirect
		if i%2 == 1 {
			want = synth.IDEnhanced
		}
		assert.Equal(t, want, s.Get(fmt.Sprintf("user-%d", i)))
	}
}
