package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/config"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/testkit"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestProductValidate(t *testing.T) {
	out, err := run(t, "product:validate", "testdata/tee.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "ok (2 variants)")
}

func TestProductValidateListsFieldErrors(t *testing.T) {
	out, err := run(t, "product:validate", "testdata/tee_invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "ProductCode: Product Code is required")
}

func TestProductValidateRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ProductCod: TEE\n"), 0o644))

	_, err := run(t, "product:validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProductCod")
}

func TestStockApply(t *testing.T) {
	mt := testkit.NewMockTransport().Strict()
	mt.On("POST", "/product/variant/3/update-stock/").Reply(200, map[string]any{"new_stock": 8})
	apihttp.DefaultClient.Transport = mt
	defer apihttp.ResetTransport()

	out, err := run(t, "--token", "test-token", "stock:apply", "testdata/count.yaml", "-w", "2")
	require.Error(t, err)
	assert.Contains(t, out, "stock 8")
	assert.Contains(t, out, "failed: validation")
	assert.Contains(t, out, "[success] Stock updated successfully")
	assert.Len(t, mt.Calls(), 1)
}

func TestStockUpdateRejectsUnknownType(t *testing.T) {
	_, err := run(t, "stock:update", "3", "--type", "gift", "--amount", "1", "--current", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--type")
}

func TestStockReportExport(t *testing.T) {
	root := t.TempDir()
	config.Set("STORAGE_LOCAL_ROOT", root)
	defer config.Set("STORAGE_LOCAL_ROOT", ".")

	mt := testkit.NewMockTransport().Strict()
	mt.On("GET", "/product/variant/stock-reports/").Reply(200, `[
	  {"id": 1, "product_name": "Tee", "sku": "TEE-M", "change_type": "sale", "change_amount": 3, "old_stock": 10, "new_stock": 7, "price": "100.00", "timestamp": "2024-03-02T10:00:00Z"},
	  {"id": 2, "product_name": "Tee", "sku": "TEE-L", "change_type": "sale", "change_amount": 2, "old_stock": 4, "new_stock": 2, "price": "50.50", "timestamp": "2024-03-03T10:00:00Z"}
	]`)
	apihttp.DefaultClient.Transport = mt
	defer apihttp.ResetTransport()

	out, err := run(t, "--token", "test-token", "stock:report", "--from", "2024-03-01", "--type", "sale", "--export", "march.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Sale Price: 150.50")
	assert.Contains(t, out, "exported 2 rows")

	csv, err := os.ReadFile(filepath.Join(root, "march.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csv), "TEE-L")
}

func TestStockReportRejectsBadDate(t *testing.T) {
	out, err := run(t, "stock:report", "--from", "03/01/2024")
	require.Error(t, err)
	assert.Contains(t, out, "from: Start date must be a YYYY-MM-DD date")
}

func TestRouteList(t *testing.T) {
	out, err := run(t, "route:list")
	require.NoError(t, err)
	assert.Contains(t, out, "stock.update")
	assert.Contains(t, out, "/api/stock-reports")
}
