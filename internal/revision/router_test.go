package revision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
)

func TestRouter(t *testing.T) {
	mem := NewMemoryClient()
	mem.Put("local", "/application/a", "")
	r := NewRouter().Register(models.StoreKindMemory, mem)

	got, err := r.ListRevisions(context.Background(), models.StoreDefinition{ID: "local", Kind: models.StoreKindMemory}, "*", "*")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = r.ListRevisions(context.Background(), models.StoreDefinition{ID: "remote", Kind: models.StoreKindNATS}, "*", "*")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}
