package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalizeWithObject(t *testing.T) {
	d := ReferenceDocument{Kind: KindObjectFunction, Name: "Add", Object: "ValueTable"}
	d.Finalize()

	assert.Equal(t, "ValueTable.Add", d.FullPath)
	assert.Equal(t, "ValueTable_Add_object_function", d.ID)
}

func TestFinalizeWithoutObject(t *testing.T) {
	d := ReferenceDocument{Kind: KindGlobalFunction, Name: "Format"}
	d.Finalize()

	assert.Equal(t, "Format", d.FullPath)
	assert.Equal(t, "Format_global_function", d.ID)
}

func TestFinalizeDistinguishesKinds(t *testing.T) {
	fn := ReferenceDocument{Kind: KindObjectFunction, Name: "Do", Object: "Query"}
	proc := ReferenceDocument{Kind: KindObjectProcedure, Name: "Do", Object: "Query"}
	fn.Finalize()
	proc.Finalize()

	assert.Equal(t, fn.FullPath, proc.FullPath)
	assert.NotEqual(t, fn.ID, proc.ID)
}
