package mem

import (
	"testing"

	"github.com/catalyst-network/catalyst-agent/agent/storage/api"
	"github.com/stretchr/testify/require"
)

func TestStoreCRUD(t *testing.T) {
	s := New()

	r := api.Record{Type: "thing", ID: "1", Value: "first"}
	require.NoError(t, s.Add(r))

	got, err := s.Get("thing", "1")
	require.NoError(t, err)
	require.Equal(t, "first", got.Value)

	_, err = s.Get("thing", "2")
	require.ErrorIs(t, err, api.ErrNotFound)
	_, err = s.Get("other", "1")
	require.ErrorIs(t, err, api.ErrNotFound)

	r.Value = "second"
	require.NoError(t, s.Update(r))
	got, err = s.Get("thing", "1")
	require.NoError(t, err)
	require.Equal(t, "second", got.Value)

	err = s.Update(api.Record{Type: "thing", ID: "missing"})
	require.ErrorIs(t, err, api.ErrNotFound)

	require.NoError(t, s.Delete("thing", "1"))
	require.ErrorIs(t, s.Delete("thing", "1"), api.ErrNotFound)
}

func TestStoreSearch(t *testing.T) {
	s := New()

	require.NoError(t, s.Add(api.Record{
		Type: "exchange", ID: "a",
		Tags: map[string]string{"state": "offer_sent", "conn": "1"},
	}))
	require.NoError(t, s.Add(api.Record{
		Type: "exchange", ID: "b",
		Tags: map[string]string{"state": "offer_sent", "conn": "2"},
	}))
	require.NoError(t, s.Add(api.Record{
		Type: "exchange", ID: "c",
		Tags: map[string]string{"state": "issued", "conn": "1"},
	}))

	rs, err := s.Search("exchange", map[string]string{"state": "offer_sent"})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	require.Equal(t, "a", rs[0].ID)
	require.Equal(t, "b", rs[1].ID)

	rs, err = s.Search("exchange", map[string]string{"state": "offer_sent", "conn": "1"})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.Equal(t, "a", rs[0].ID)

	// empty filter matches everything of the type
	rs, err = s.Search("exchange", nil)
	require.NoError(t, err)
	require.Len(t, rs, 3)

	rs, err = s.Search("nothing", nil)
	require.NoError(t, err)
	require.Empty(t, rs)
}
