package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
)

func TestNewFormStore(t *testing.T) {
	store := NewFormStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.forms)
}

func TestFormStore_Save_Success(t *testing.T) {
	store := NewFormStore()
	ctx := context.Background()

	form := domain.RegisteredForm{
		ID:                 "reg-1",
		ModuleCode:         "STOM",
		ModuleType:         domain.ModuleTypeMonitoring,
		ProjectID:          "1",
		FormID:             "sample-form",
		SynchronizeCommand: "synchronize-monitoring",
		UpgradeCommand:     "upgrade-monitoring",
		TaxonListID:        100,
	}

	err := store.Save(ctx, form)
	require.NoError(t, err)

	saved, err := store.Get(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "STOM", saved.ModuleCode)
	assert.Equal(t, "sample-form", saved.FormID)
	assert.Equal(t, 100, saved.TaxonListID)
}

func TestFormStore_Save_Update(t *testing.T) {
	store := NewFormStore()
	ctx := context.Background()

	err := store.Save(ctx, domain.RegisteredForm{ID: "reg-1", FormID: "v1"})
	require.NoError(t, err)
	err = store.Save(ctx, domain.RegisteredForm{ID: "reg-1", FormID: "v2"})
	require.NoError(t, err)

	saved, err := store.Get(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", saved.FormID)
}

func TestFormStore_Get_NotFound(t *testing.T) {
	store := NewFormStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFormStore_List(t *testing.T) {
	store := NewFormStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RegisteredForm{ID: "reg-1"}))
	require.NoError(t, store.Save(ctx, domain.RegisteredForm{ID: "reg-2"}))

	forms, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, forms, 2)
}

func TestFormStore_Delete(t *testing.T) {
	store := NewFormStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RegisteredForm{ID: "reg-1"}))
	require.NoError(t, store.Delete(ctx, "reg-1"))

	_, err := store.Get(ctx, "reg-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
