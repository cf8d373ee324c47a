package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	Address string `db:"address" json:"address"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expectedCols := []string{
		"id", "deletion_mark", "version", "code", "name", "address",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
			Code: "ALM-001",
			Name: "Almacen Principal",
		},
		Address: "Calle 5 #12",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "ALM-001", m["code"])
	assert.Equal(t, "Almacen Principal", m["name"])
	assert.Equal(t, "Calle 5 #12", m["address"])
}
