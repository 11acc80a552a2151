package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/timhiebenthal/trellis-datamodel-sub000/internal/canvas"
)

func TestResolveDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		sourceClass canvas.FieldClass
		targetClass canvas.FieldClass
		wantFlip    bool
	}{
		{name: "fk_to_pk_flips", sourceClass: canvas.FieldClassFK, targetClass: canvas.FieldClassPK, wantFlip: true},
		{name: "pk_to_fk_keeps", sourceClass: canvas.FieldClassPK, targetClass: canvas.FieldClassFK, wantFlip: false},
		{name: "both_pk_keeps", sourceClass: canvas.FieldClassPK, targetClass: canvas.FieldClassPK, wantFlip: false},
		{name: "both_fk_keeps", sourceClass: canvas.FieldClassFK, targetClass: canvas.FieldClassFK, wantFlip: false},
		{name: "both_unknown_keeps", sourceClass: canvas.FieldClassUnknown, targetClass: canvas.FieldClassUnknown, wantFlip: false},
		{name: "fk_to_unknown_keeps", sourceClass: canvas.FieldClassFK, targetClass: canvas.FieldClassUnknown, wantFlip: false},
		{name: "unknown_to_pk_keeps", sourceClass: canvas.FieldClassUnknown, targetClass: canvas.FieldClassPK, wantFlip: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolved := canvas.ResolveDirection("drag_src", "src_field", "drag_tgt", "tgt_field", tt.sourceClass, tt.targetClass)

			assert.Equal(t, canvas.CardinalityOneToMany, resolved.Cardinality)
			assert.Equal(t, tt.wantFlip, resolved.Flipped)
			if tt.wantFlip {
				assert.Equal(t, "drag_tgt", resolved.SourceID, "pk holder becomes the parent")
				assert.Equal(t, "drag_src", resolved.TargetID)
				assert.Equal(t, "tgt_field", resolved.SourceField)
				assert.Equal(t, "src_field", resolved.TargetField)
			} else {
				assert.Equal(t, "drag_src", resolved.SourceID)
				assert.Equal(t, "drag_tgt", resolved.TargetID)
				assert.Equal(t, "src_field", resolved.SourceField)
				assert.Equal(t, "tgt_field", resolved.TargetField)
			}
		})
	}
}

// 用户从 orders.customer_id 拖到 customers.id：customer_id 是已知外键，
// id 是已知主键，最终边必须是 customers → orders（1 → *）。
func TestResolveDirectionOrdersCustomersScenario(t *testing.T) {
	t.Parallel()

	resolved := canvas.ResolveDirection(
		"orders", "customer_id",
		"customers", "id",
		canvas.FieldClassFK, canvas.FieldClassPK)

	assert.Equal(t, "customers", resolved.SourceID)
	assert.Equal(t, "orders", resolved.TargetID)
	assert.Equal(t, "id", resolved.SourceField)
	assert.Equal(t, "customer_id", resolved.TargetField)
	assert.Equal(t, canvas.CardinalityOneToMany, resolved.Cardinality)
}
