package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/service"
	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/storage"
)

func newCanvasService(t *testing.T, dataRoot string) *service.CanvasService {
	t.Helper()
	pm := storage.NewPathManager(dataRoot, "shop")
	svc, err := service.NewCanvasService(newTestLoader(t), storage.NewDataModelStorage(pm), canvas.LayoutDimensional)
	require.NoError(t, err)
	return svc
}

// 准备绑定到 orders/customers 模型的两个实体
func seedBoundEntities(t *testing.T, svc *service.CanvasService) {
	t.Helper()

	orders, err := svc.CreateEntity("Orders", canvas.EntityTypeFact)
	require.NoError(t, err)
	require.NoError(t, svc.BindModel(orders.ID, "orders", ""))

	customers, err := svc.CreateEntity("Customers", canvas.EntityTypeDimension)
	require.NoError(t, err)
	require.NoError(t, svc.BindModel(customers.ID, "customers", ""))
}

func TestConnectFieldsFlipsToParentChild(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)

	// 用户从 orders.customer_id 拖到 customers.id
	require.NoError(t, svc.ConnectFields("orders", "customer_id", "customers", "id"))

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Relationships, 1)
	edge := snapshot.Relationships[0]
	assert.Equal(t, "customers", edge.SourceID, "pk holder becomes the parent")
	assert.Equal(t, "orders", edge.TargetID)
	assert.Equal(t, "id", edge.SourceField)
	assert.Equal(t, "customer_id", edge.TargetField)
	assert.Equal(t, canvas.CardinalityOneToMany, edge.Cardinality)
	assert.Equal(t, "customers", edge.SourceModel)
	assert.Equal(t, "orders", edge.TargetModel)
}

func TestConnectFieldsKeepsDragDirectionWhenUnknown(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())

	// 未绑定模型：分类不可用，回退为拖拽方向
	a, err := svc.CreateEntity("Alpha", canvas.EntityTypeUnclassified)
	require.NoError(t, err)
	b, err := svc.CreateEntity("Beta", canvas.EntityTypeUnclassified)
	require.NoError(t, err)

	require.NoError(t, svc.ConnectFields(a.ID, "x", b.ID, "y"))

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Relationships, 1)
	assert.Equal(t, a.ID, snapshot.Relationships[0].SourceID)
	assert.Equal(t, b.ID, snapshot.Relationships[0].TargetID)
	assert.Equal(t, canvas.CardinalityOneToMany, snapshot.Relationships[0].Cardinality)
}

func TestConnectFieldsIdempotent(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)

	require.NoError(t, svc.ConnectFields("orders", "customer_id", "customers", "id"))
	require.NoError(t, svc.ConnectFields("orders", "customer_id", "customers", "id"))

	assert.Len(t, svc.Snapshot().Relationships, 1)
}

func TestFieldDragLifecycle(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)

	require.NoError(t, svc.BeginFieldDrag("orders", "customer_id"))
	require.NoError(t, svc.DropField("customers", "id"))

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Relationships, 1)
	assert.Equal(t, "customers", snapshot.Relationships[0].SourceID)
	assert.Equal(t, "orders", snapshot.Relationships[0].TargetID)

	// 落点即消费上下文，重复落点必须失败
	assert.Error(t, svc.DropField("customers", "id"))
}

func TestFieldDragCancelClearsContext(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)

	require.NoError(t, svc.BeginFieldDrag("orders", "customer_id"))
	svc.CancelFieldDrag()

	assert.Error(t, svc.DropField("customers", "id"))
	assert.Empty(t, svc.Snapshot().Relationships)
}

func TestFieldDragRequiresExistingEntity(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	assert.Error(t, svc.BeginFieldDrag("ghost", "id"))
}

func TestFreeformLayoutPlacesEntitiesLoosely(t *testing.T) {
	t.Parallel()

	pm := storage.NewPathManager(t.TempDir(), "shop")
	svc, err := service.NewCanvasService(newTestLoader(t), storage.NewDataModelStorage(pm), canvas.LayoutFreeform)
	require.NoError(t, err)

	entity, err := svc.CreateEntity("Orders", canvas.EntityTypeFact)
	require.NoError(t, err)

	// 自由布局忽略条带，位置落在抖动区域内
	assert.GreaterOrEqual(t, entity.Position.X, 200.0)
	assert.LessOrEqual(t, entity.Position.X, 440.0)
	assert.GreaterOrEqual(t, entity.Position.Y, 200.0)
	assert.LessOrEqual(t, entity.Position.Y, 440.0)
}

func TestGenerateEntitiesValidationRefusal(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	_, err := svc.CreateEntity("Orders", canvas.EntityTypeFact)
	require.NoError(t, err)

	created, messages, err := svc.GenerateEntities([]canvas.EntityDraft{
		{Label: "Orders", Type: canvas.EntityTypeFact},
		{Label: "Customers", Type: canvas.EntityTypeDimension},
	})
	require.NoError(t, err)
	assert.Empty(t, created)
	require.NotEmpty(t, messages)
	assert.Len(t, svc.Snapshot().Entities, 1, "refused generation leaves canvas untouched")
}

func TestGenerateEntitiesWithFKLinks(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())

	created, messages, err := svc.GenerateEntities([]canvas.EntityDraft{
		{Label: "Customers", Type: canvas.EntityTypeDimension, Fields: []canvas.DraftField{
			{Name: "id", Datatype: "int"},
		}},
		{Label: "Sales", Type: canvas.EntityTypeFact, Fields: []canvas.DraftField{
			{Name: "customer_id", Datatype: "int", FKLink: &canvas.FKLink{
				TargetEntityID: "customers", TargetField: "id",
			}},
		}},
	})
	require.NoError(t, err)
	require.Empty(t, messages)
	require.Len(t, created, 2)

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Relationships, 1)
	edge := snapshot.Relationships[0]
	assert.Equal(t, "customers", edge.SourceID)
	assert.Equal(t, "sales", edge.TargetID)
	assert.Equal(t, canvas.CardinalityOneToMany, edge.Cardinality)

	// 事实与维度分属不同条带
	byID := map[string]canvas.Entity{}
	for _, e := range snapshot.Entities {
		byID[e.ID] = e
	}
	assert.Greater(t, byID["sales"].Position.Y, byID["customers"].Position.Y)
}

func TestApplyInferredRelationships(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	pm := storage.NewPathManager(t.TempDir(), "shop")
	canvasSvc, err := service.NewCanvasService(loader, storage.NewDataModelStorage(pm), canvas.LayoutDimensional)
	require.NoError(t, err)
	seedBoundEntities(t, canvasSvc)

	inferenceSvc := service.NewInferenceService(loader, canvasSvc)

	candidates := inferenceSvc.InferredRelationships()
	require.Len(t, candidates, 1)

	applied, err := inferenceSvc.ApplyInferred()
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	snapshot := canvasSvc.Snapshot()
	require.Len(t, snapshot.Relationships, 1)
	assert.Equal(t, "customers", snapshot.Relationships[0].SourceID)
	assert.Equal(t, "orders", snapshot.Relationships[0].TargetID)

	// 再次套用保持幂等
	_, err = inferenceSvc.ApplyInferred()
	require.NoError(t, err)
	assert.Len(t, canvasSvc.Snapshot().Relationships, 1)
}

func TestApplyInferredSkipsUnboundModels(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	pm := storage.NewPathManager(t.TempDir(), "shop")
	canvasSvc, err := service.NewCanvasService(loader, storage.NewDataModelStorage(pm), canvas.LayoutDimensional)
	require.NoError(t, err)

	inferenceSvc := service.NewInferenceService(loader, canvasSvc)
	applied, err := inferenceSvc.ApplyInferred()
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Empty(t, canvasSvc.Snapshot().Relationships)
}

func TestCanvasStatePersistsAcrossRestart(t *testing.T) {
	t.Parallel()

	dataRoot := t.TempDir()
	loader := newTestLoader(t)
	pm := storage.NewPathManager(dataRoot, "shop")

	svc, err := service.NewCanvasService(loader, storage.NewDataModelStorage(pm), canvas.LayoutDimensional)
	require.NoError(t, err)
	_, err = svc.CreateEntity("Orders", canvas.EntityTypeFact)
	require.NoError(t, err)

	reopened, err := service.NewCanvasService(loader, storage.NewDataModelStorage(pm), canvas.LayoutDimensional)
	require.NoError(t, err)
	snapshot := reopened.Snapshot()
	require.Len(t, snapshot.Entities, 1)
	assert.Equal(t, "orders", snapshot.Entities[0].ID)
}

func TestRenameEntityThroughService(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)
	require.NoError(t, svc.ConnectFields("orders", "customer_id", "customers", "id"))

	edgeID := svc.Snapshot().Relationships[0].ID

	newID, err := svc.RenameEntity("customers", "Clients")
	require.NoError(t, err)
	assert.Equal(t, "clients", newID)

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Relationships, 1)
	assert.Equal(t, edgeID, snapshot.Relationships[0].ID, "edge identity survives rename")
	assert.Equal(t, "clients", snapshot.Relationships[0].SourceID)
}

func TestDeleteEntityCascadeThroughService(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)
	require.NoError(t, svc.ConnectFields("orders", "customer_id", "customers", "id"))

	require.NoError(t, svc.DeleteEntity("customers"))

	snapshot := svc.Snapshot()
	assert.Len(t, snapshot.Entities, 1)
	assert.Empty(t, snapshot.Relationships)
}

func TestUnbindModelThroughService(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	seedBoundEntities(t, svc)
	require.NoError(t, svc.ConnectFields("orders", "customer_id", "customers", "id"))

	require.NoError(t, svc.UnbindModel("orders"))

	snapshot := svc.Snapshot()
	require.Len(t, snapshot.Relationships, 1, "edges survive unbinding")
	assert.Empty(t, snapshot.Relationships[0].SourceField)
	assert.Empty(t, snapshot.Relationships[0].TargetField)
}

func TestSetFieldsRejectsInvalidDatatype(t *testing.T) {
	t.Parallel()

	svc := newCanvasService(t, t.TempDir())
	entity, err := svc.CreateEntity("Notes", canvas.EntityTypeUnclassified)
	require.NoError(t, err)

	err = svc.SetFields(entity.ID, []canvas.DraftField{{Name: "body", Datatype: "blob"}})
	assert.Error(t, err)
}
