package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEqualIgnoresOrder(t *testing.T) {
	a := Snapshot{{Key: "a", ETag: "1"}, {Key: "b", ETag: "2"}}
	b := Snapshot{{Key: "b", ETag: "2"}, {Key: "a", ETag: "1"}}

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
}

func TestSnapshotEqualIgnoresDuplicates(t *testing.T) {
	a := Snapshot{{Key: "a", ETag: "1"}, {Key: "a", ETag: "1"}}
	b := Snapshot{{Key: "a", ETag: "1"}}

	assert.True(t, a.Equal(b))
}

func TestSnapshotEqualDetectsTagChange(t *testing.T) {
	a := Snapshot{{Key: "a", ETag: "1"}}
	b := Snapshot{{Key: "a", ETag: "2"}}

	assert.False(t, a.Equal(b))
}

func TestSnapshotEqualLabelMatters(t *testing.T) {
	a := Snapshot{{Key: "a", Label: "dev", ETag: "1"}}
	b := Snapshot{{Key: "a", Label: "prod", ETag: "1"}}

	assert.False(t, a.Equal(b))
}

func TestSnapshotEmptyVersusNil(t *testing.T) {
	assert.True(t, Snapshot{}.Equal(nil))
	assert.False(t, Snapshot{}.Equal(Snapshot{{Key: "a", ETag: "1"}}))
}

func TestSnapshotDiff(t *testing.T) {
	prev := Snapshot{{Key: "a", ETag: "1"}, {Key: "b", ETag: "1"}, {Key: "c", ETag: "1"}}
	cur := Snapshot{{Key: "a", ETag: "1"}, {Key: "b", ETag: "2"}, {Key: "d", ETag: "1"}}

	assert.Equal(t, []string{"b", "c", "d"}, cur.Diff(prev))
	assert.Empty(t, prev.Diff(prev))
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	s := Snapshot{{Key: "a", ETag: "1"}}
	c := s.Clone()
	c[0].ETag = "2"

	assert.Equal(t, "1", s[0].ETag)
	assert.Nil(t, Snapshot(nil).Clone())
}

func TestStoreDefinitionDefaults(t *testing.T) {
	s := StoreDefinition{ID: "store1", Kind: StoreKindHTTP}.WithDefaults()

	assert.Equal(t, DefaultWatchedKey, s.WatchedKey)
	assert.Equal(t, []string{DefaultContext}, s.Contexts)
	assert.Equal(t, DefaultLabelFilter, s.Label)
	assert.Equal(t, DefaultFeatureFlagFilter, s.FeatureFlagFilter)
}

func TestParseConnection(t *testing.T) {
	c, err := ParseConnection("Endpoint=http://localhost:8080; Id=reader ;Secret=s3cr=t")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", c.Get("endpoint"))
	assert.Equal(t, "reader", c.Get("ID"))
	assert.Equal(t, "s3cr=t", c.Get("secret"))

	_, err = ParseConnection("Endpoint")
	assert.Error(t, err)
}
