package banner

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/bannerdesk/internal/api"
)

func TestStoreReplaceKeepsOrder(t *testing.T) {
	s := NewStore()
	s.Replace([]api.Banner{{ID: "b"}, {ID: "a"}, {ID: "c"}})

	ids := []string{}
	for _, b := range s.List() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, 3, s.Len())
}

func TestStoreReplaceDropsDuplicates(t *testing.T) {
	s := NewStore()
	s.Replace([]api.Banner{{ID: "a", Title: "first"}, {ID: "a", Title: "second"}})
	assert.Equal(t, 1, s.Len())
	b, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", b.Title)
}

func TestStoreUpdateInStateReplacesInPlace(t *testing.T) {
	s := NewStore()
	s.Replace([]api.Banner{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	before := s.Version()

	s.UpdateInState(api.Banner{ID: "a", Title: "A2"})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A2", list[0].Title)
	assert.Equal(t, "b", list[1].ID)
	assert.Greater(t, s.Version(), before)
}

func TestStoreUpdateInStateAppendsUnknown(t *testing.T) {
	var s Store
	s.UpdateInState(api.Banner{ID: "new"})
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("new")
	assert.True(t, ok)
}

func TestStoreListByPage(t *testing.T) {
	s := NewStore()
	s.Replace([]api.Banner{
		{ID: "t1", Page: api.PageTop},
		{ID: "b1", Page: api.PageBottom},
		{ID: "none"},
	})

	top := s.ListByPage(api.PageTop)
	require.Len(t, top, 2)
	assert.Equal(t, "t1", top[0].ID)
	assert.Equal(t, "none", top[1].ID)

	bottom := s.ListByPage(api.PageBottom)
	require.Len(t, bottom, 1)
	assert.Equal(t, "b1", bottom[0].ID)

	assert.Len(t, s.ListByPage(""), 3)
}

func TestStoreListReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Replace([]api.Banner{{ID: "a", Title: "A"}})
	list := s.List()
	list[0].Title = "mutated"
	b, _ := s.Get("a")
	assert.Equal(t, "A", b.Title)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.UpdateInState(api.Banner{ID: fmt.Sprintf("b%d", i%5)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.ListByPage(api.PageTop)
			_ = s.Len()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, s.Len())
}
