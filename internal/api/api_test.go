package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/datasets"
	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

const movementsCSV = "mov_id,fecha,mes,anio,cuenta_id,contraparte_id,categoria_id,instrumento_id,descripcion,monto,moneda,tasa_cambio\n" +
	"20240315-001,2024-03-15,3,2024,CTA_001,,CAT_001,,Sueldo,1000000,CLP,\n" +
	"20240315-002,2024-03-15,3,2024,CTA_001,,CAT_002,,Arriendo,-400000,CLP,\n"

func setupServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		catalog.Movements:  movementsCSV,
		catalog.Accounts:   "cuenta_id,cuenta_nombre\nCTA_001,Banco\n",
		catalog.Categories: "categoria_id,categoria_nombre,tipo_flujo\nCAT_001,Sueldo,Ingreso\nCAT_002,Arriendo,Gasto\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, catalog.DefaultFiles[name]), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	svc := datasets.New(datasets.Config{
		Store: table.NewStore(table.StoreConfig{Catalog: catalog.New(root)}),
		Now:   func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	})
	ts := httptest.NewServer(NewRouter(svc, nil))
	t.Cleanup(ts.Close)
	return ts, root
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestHealth(t *testing.T) {
	ts, _ := setupServer(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, expected 200", resp.StatusCode)
	}
	var got HealthResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "OK" || got.Message == "" {
		t.Errorf("health = %+v", got)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestListDataset(t *testing.T) {
	ts, _ := setupServer(t)

	tests := []struct {
		name     string
		path     string
		status   int
		expected string
	}{
		{"existing dataset", "/api/cuentas", http.StatusOK, `[{"cuenta_id":"CTA_001","cuenta_nombre":"Banco"}]`},
		{"missing file", "/api/prestamos", http.StatusOK, `[]`},
		{"unknown dataset", "/api/presupuestos", http.StatusBadRequest, `"invalid_dataset"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, http.MethodGet, ts.URL+tt.path, "")
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, expected %d: %s", resp.StatusCode, tt.status, body)
			}
			if !strings.Contains(string(body), tt.expected) {
				t.Errorf("body = %s, expected it to contain %s", body, tt.expected)
			}
		})
	}
}

func TestListMovementsKeepsNumbers(t *testing.T) {
	ts, _ := setupServer(t)

	_, body := doRequest(t, http.MethodGet, ts.URL+"/api/movimientos", "")
	var got []map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("invalid JSON %s: %v", body, err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d movements, expected 2", len(got))
	}
	if got[0]["monto"] != float64(1000000) || got[0]["contraparte_id"] != nil {
		t.Errorf("first movement = %v", got[0])
	}
}

func TestCreateMovement(t *testing.T) {
	ts, root := setupServer(t)

	resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/movimientos",
		`{"fecha":"2024-03-15","descripcion":"Cafe","monto":-3500,"moneda":"CLP","cuenta_id":"CTA_001"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, expected 201: %s", resp.StatusCode, body)
	}
	var got MovementCreatedResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.MovID != "20240315-003" {
		t.Errorf("mov_id = %s, expected 20240315-003", got.MovID)
	}

	data, err := os.ReadFile(filepath.Join(root, "fact_movimientos.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "20240315-003,2024-03-15,3,2024,CTA_001,,,,Cafe,-3500,CLP,\n") {
		t.Errorf("file = %s", data)
	}
}

func TestCreateMovementValidation(t *testing.T) {
	ts, root := setupServer(t)
	path := filepath.Join(root, "fact_movimientos.csv")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing monto", `{"fecha":"2024-03-15","descripcion":"Cafe","moneda":"CLP"}`, "monto"},
		{"malformed date", `{"fecha":"15-03-2024","descripcion":"Cafe","monto":1,"moneda":"CLP"}`, "fecha"},
		{"non-numeric amount", `{"fecha":"2024-03-15","descripcion":"Cafe","monto":"mucho","moneda":"CLP"}`, "monto"},
		{"not an object", `[1,2]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, http.MethodPost, ts.URL+"/api/movimientos", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, expected 400: %s", resp.StatusCode, body)
			}
			var got ErrorResponse
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(got.ErrorDescription, tt.field) {
				t.Errorf("error_description = %q, expected it to name %q", got.ErrorDescription, tt.field)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != movementsCSV {
				t.Errorf("file changed after a rejected create")
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ts, root := setupServer(t)

	resp, body := doRequest(t, http.MethodPut, ts.URL+"/api/cuentas/CTA_001", `{"cuenta_nombre":"Banco Estado"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", resp.StatusCode, body)
	}

	resp, _ = doRequest(t, http.MethodPut, ts.URL+"/api/cuentas/CTA_404", `{"cuenta_nombre":"X"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("PUT unknown id status = %d, expected 404", resp.StatusCode)
	}

	resp, body = doRequest(t, http.MethodPut, ts.URL+"/api/movimientos/20240315-001", `{"fecha":"2024-01-31"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT movement status = %d: %s", resp.StatusCode, body)
	}

	resp, _ = doRequest(t, http.MethodDelete, ts.URL+"/api/movimientos/20240315-002", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d, expected 200", resp.StatusCode)
	}
	resp, _ = doRequest(t, http.MethodDelete, ts.URL+"/api/movimientos/20240315-002", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, expected 404", resp.StatusCode)
	}

	data, err := os.ReadFile(filepath.Join(root, "fact_movimientos.csv"))
	if err != nil {
		t.Fatal(err)
	}
	expected := "mov_id,fecha,mes,anio,cuenta_id,contraparte_id,categoria_id,instrumento_id,descripcion,monto,moneda,tasa_cambio\n" +
		"20240315-001,2024-01-31,1,2024,CTA_001,,CAT_001,,Sueldo,1000000,CLP,\n"
	if string(data) != expected {
		t.Errorf("file = %q, expected %q", data, expected)
	}

	accounts, err := os.ReadFile(filepath.Join(root, "dim_cuentas.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(accounts) != "cuenta_id,cuenta_nombre\nCTA_001,Banco Estado\n" {
		t.Errorf("accounts file = %q", accounts)
	}
}

func TestReports(t *testing.T) {
	ts, _ := setupServer(t)

	resp, body := doRequest(t, http.MethodGet, ts.URL+"/api/resumen/cuentas", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resumen status = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"id":"CTA_001"`) || !strings.Contains(string(body), `"total":"600000"`) {
		t.Errorf("resumen body = %s", body)
	}

	resp, body = doRequest(t, http.MethodGet, ts.URL+"/api/dashboard?anio=2024", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"ingresos":"1000000"`) || !strings.Contains(string(body), `"gastos":"-400000"`) {
		t.Errorf("dashboard body = %s", body)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/api/dashboard?anio=dosmil", http.StatusBadRequest},
		{"/api/resumen/movimientos", http.StatusBadRequest},
		{"/api/historial?limit=0", http.StatusBadRequest},
		{"/api/historial?dataset=cuentas", http.StatusOK},
	}
	for _, tt := range tests {
		if resp, _ := doRequest(t, http.MethodGet, ts.URL+tt.path, ""); resp.StatusCode != tt.status {
			t.Errorf("GET %s status = %d, expected %d", tt.path, resp.StatusCode, tt.status)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := setupServer(t)

	resp, _ := doRequest(t, http.MethodOptions, ts.URL+"/api/movimientos", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, expected 204", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Errorf("Access-Control-Allow-Methods = %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}
}
