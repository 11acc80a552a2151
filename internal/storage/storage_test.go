package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/storage"
)

func TestDataModelRoundTrip(t *testing.T) {
	t.Parallel()

	pm := storage.NewPathManager(t.TempDir(), "My Project!")
	store := storage.NewDataModelStorage(pm)

	state := &canvas.State{
		Entities: []canvas.Entity{
			{ID: "orders", Label: "Orders", Type: canvas.EntityTypeFact, DbtModel: "orders",
				Position: canvas.Position{X: 120, Y: 480}},
		},
		Relationships: []canvas.Relationship{
			{ID: "e1", SourceID: "customers", TargetID: "orders",
				SourceField: "id", TargetField: "customer_id",
				Cardinality: canvas.CardinalityOneToMany},
		},
	}

	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Entities, loaded.Entities)
	assert.Equal(t, state.Relationships, loaded.Relationships)
}

func TestDataModelLoadMissingFile(t *testing.T) {
	t.Parallel()

	store := storage.NewDataModelStorage(storage.NewPathManager(t.TempDir(), ""))
	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Entities)
	assert.Empty(t, state.Relationships)
}

func TestSchemaStorageMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := storage.NewSchemaStorage(storage.NewPathManager(t.TempDir(), "shop"))
	schema, found, err := store.Load("orders", "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, schema)
}

func TestSchemaStorageRoundTrip(t *testing.T) {
	t.Parallel()

	store := storage.NewSchemaStorage(storage.NewPathManager(t.TempDir(), "shop"))

	schema := &storage.SchemaFile{
		Model:       "orders",
		Version:     "2",
		Description: "order fact table",
		Tags:        []string{"core"},
		Columns: []storage.SchemaColumn{
			{Name: "id", DataType: "integer", Description: "surrogate key"},
			{Name: "customer_id", DataType: "integer"},
		},
	}
	require.NoError(t, store.Save(schema))

	loaded, found, err := store.Load("orders", "2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema, loaded)

	// 无版本路径与有版本路径互不干扰
	_, found, err = store.Load("orders", "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSchemaPathVersioning(t *testing.T) {
	t.Parallel()

	pm := storage.NewPathManager("/data", "Shop Corp")
	assert.Contains(t, pm.GetSchemaPath("Orders", ""), "shop_corp")
	assert.Contains(t, pm.GetSchemaPath("Orders", ""), "orders.yml")
	assert.Contains(t, pm.GetSchemaPath("orders", "2"), "orders__v2.yml")
}
