package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	buf, err := BuildWorkbook([]Sheet{
		{Name: "Stock", Headers: []string{"Product", "Qty"}, Rows: [][]any{{"Flour", 12}, {"Salt", 3}}},
		{Name: "Expiring", Headers: []string{"Batch"}, Rows: nil},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Stock", "Expiring"}, f.GetSheetList())
	v, err := f.GetCellValue("Stock", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Salt", v)
	v, _ = f.GetCellValue("Stock", "B2")
	assert.Equal(t, "12", v)
}

func TestBuildWorkbook_Empty(t *testing.T) {
	_, err := BuildWorkbook(nil)
	assert.Error(t, err)
}
