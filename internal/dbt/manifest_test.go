package dbt_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/dbt"
)

const manifestFixture = `{
  "metadata": {"project_name": "shop", "adapter_type": "duckdb"},
  "nodes": {
    "model.shop.orders": {
      "name": "orders",
      "resource_type": "model",
      "schema": "main",
      "tags": ["core"],
      "config": {"materialized": "table"},
      "columns": {
        "id": {"name": "id", "data_type": "integer"},
        "customer_id": {"name": "customer_id", "data_type": "integer", "description": "fk to customers"}
      }
    },
    "model.shop.customers": {
      "name": "customers",
      "resource_type": "model",
      "schema": "main",
      "tags": ["core", "pii"],
      "config": {"materialized": "view"},
      "columns": {
        "id": {"name": "id", "data_type": "integer"},
        "email": {"name": "email", "data_type": "varchar"}
      }
    },
    "test.shop.unique_customers_id": {
      "name": "unique_customers_id",
      "resource_type": "test",
      "attached_node": "model.shop.customers",
      "column_name": "id",
      "test_metadata": {"name": "unique", "kwargs": {"column_name": "id"}}
    },
    "test.shop.not_null_customers_id": {
      "name": "not_null_customers_id",
      "resource_type": "test",
      "attached_node": "model.shop.customers",
      "column_name": "id",
      "test_metadata": {"name": "not_null", "kwargs": {"column_name": "id"}}
    },
    "test.shop.relationships_orders_customer_id": {
      "name": "relationships_orders_customer_id",
      "resource_type": "test",
      "attached_node": "model.shop.orders",
      "column_name": "customer_id",
      "test_metadata": {
        "name": "relationships",
        "kwargs": {"column_name": "customer_id", "field": "id", "to": "ref('customers')"}
      }
    }
  }
}`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestFixture), 0644))
	return path
}

func TestParserParse(t *testing.T) {
	t.Parallel()

	manifest, err := dbt.NewParser(writeManifest(t)).Parse()
	require.NoError(t, err)
	assert.Equal(t, "shop", manifest.Metadata.ProjectName)
	assert.Len(t, manifest.Nodes, 5)
}

func TestParserMissingFile(t *testing.T) {
	t.Parallel()

	_, err := dbt.NewParser(filepath.Join(t.TempDir(), "missing.json")).Parse()
	assert.Error(t, err)
}

func TestBuildModels(t *testing.T) {
	t.Parallel()

	manifest, err := dbt.NewParser(writeManifest(t)).Parse()
	require.NoError(t, err)

	models := dbt.BuildModels(manifest)
	require.Len(t, models, 2)

	byName := map[string]dbt.Model{}
	for _, m := range models {
		byName[m.Name] = m
	}

	customers := byName["customers"]
	assert.Equal(t, "view", customers.Materialized)
	assert.Equal(t, []string{"core", "pii"}, customers.Tags)
	require.Len(t, customers.Columns, 2)

	var customersID *dbt.Column
	for i := range customers.Columns {
		if customers.Columns[i].Name == "id" {
			customersID = &customers.Columns[i]
		}
	}
	require.NotNil(t, customersID)
	assert.ElementsMatch(t, []string{"unique", "not_null"}, customersID.Tests)

	orders := byName["orders"]
	var customerID *dbt.Column
	for i := range orders.Columns {
		if orders.Columns[i].Name == "customer_id" {
			customerID = &orders.Columns[i]
		}
	}
	require.NotNil(t, customerID)
	assert.Equal(t, "customers", customerID.RelatedModel)
	assert.Equal(t, "id", customerID.RelatedField)
}

func TestClassifyColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		column     *dbt.Column
		otherModel string
		want       string
	}{
		{
			name:   "unique_and_not_null_is_pk",
			column: &dbt.Column{Name: "id", Tests: []string{"unique", "not_null"}},
			want:   dbt.ClassPK,
		},
		{
			name:   "primary_key_marker_is_pk",
			column: &dbt.Column{Name: "id", Tests: []string{"primary_key"}},
			want:   dbt.ClassPK,
		},
		{
			name:       "relationship_to_other_model_is_fk",
			column:     &dbt.Column{Name: "customer_id", Tests: []string{"relationships"}, RelatedModel: "customers"},
			otherModel: "customers",
			want:       dbt.ClassFK,
		},
		{
			name:       "relationship_to_unrelated_model_is_unknown",
			column:     &dbt.Column{Name: "customer_id", RelatedModel: "customers"},
			otherModel: "products",
			want:       dbt.ClassUnknown,
		},
		{
			name:   "unique_alone_is_unknown",
			column: &dbt.Column{Name: "code", Tests: []string{"unique"}},
			want:   dbt.ClassUnknown,
		},
		{
			name: "nil_column_is_unknown",
			want: dbt.ClassUnknown,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbt.ClassifyColumn(tt.column, tt.otherModel))
		})
	}
}

func TestExtractRelationshipTests(t *testing.T) {
	t.Parallel()

	manifest, err := dbt.NewParser(writeManifest(t)).Parse()
	require.NoError(t, err)

	inferred := dbt.ExtractRelationshipTests(manifest)
	require.Len(t, inferred, 1)

	rel := inferred[0]
	assert.Equal(t, "customers", rel.SourceModel, "parent holds the primary key")
	assert.Equal(t, "orders", rel.TargetModel)
	assert.Equal(t, "id", rel.SourceField)
	assert.Equal(t, "customer_id", rel.TargetField)
	assert.Equal(t, "one_to_many", rel.Cardinality)
}

func TestLoaderGetModel(t *testing.T) {
	t.Parallel()

	loader := dbt.NewLoader(writeManifest(t))
	require.NoError(t, loader.Load())

	model, err := loader.GetModel("orders", "")
	require.NoError(t, err)
	assert.Equal(t, "orders", model.Name)
	assert.Equal(t, "table", model.Materialized)

	_, err = loader.GetModel("payments", "")
	assert.Error(t, err)
}

func TestLoaderReload(t *testing.T) {
	t.Parallel()

	path := writeManifest(t)
	loader := dbt.NewLoader(path)
	require.NoError(t, loader.Load())
	require.Len(t, loader.ListModels(), 2)

	require.NoError(t, os.WriteFile(path, []byte(`{"nodes": {}}`), 0644))
	require.NoError(t, loader.Reload())
	assert.Empty(t, loader.ListModels())
}
