package api

import (
	"bytes"
	"context"
	"dashxcel/internal/analysis"
	"dashxcel/internal/models"
	"dashxcel/internal/service"
	"dashxcel/internal/state"
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `Region,Product,Date,Sales,Units
A,x,2024-01-03,5,1
B,y,2024-01-01,5,2
A,y,2024-01-02,12,4
`

type testServer struct {
	t       *testing.T
	handler *Handler
	router  chi.Router
	session string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := state.NewStore(time.Hour, nil)
	h := NewHandler(store, analysis.NewService(analysis.DefaultOptions()), service.NewIngestService(service.IngestOptions{}), nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &testServer{t: t, handler: h, router: r}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if ts.session != "" {
		req.Header.Set(SessionHeader, ts.session)
	}
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	if id := rr.Header().Get(SessionHeader); id != "" {
		ts.session = id
	}
	return rr
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (ts *testServer) upload(filename, content string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(ts.t, err)
	_, err = part.Write([]byte(content))
	require.NoError(ts.t, err)
	require.NoError(ts.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(req)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndIndex(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = ts.get("/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "DashXcel")
}

func TestSessionIssued(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/status")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, ts.session)

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, ts.session, cookies[0].Value)

	status := decode[models.StatusResponse](t, rr)
	assert.Equal(t, ts.session, status.SessionID)
	assert.False(t, status.File.Loaded)

	first := ts.session
	ts.get("/api/status")
	assert.Equal(t, first, ts.session, "session is reused")
}

func TestEndpointsRequireDataset(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/preview", "/api/column-types", "/api/kpis", "/api/profile", "/api/charts", "/api/download"} {
		rr := ts.get(path)
		assert.Equal(t, http.StatusConflict, rr.Code, path)
	}
}

func TestUploadAndCharts(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.upload("sales.csv", salesCSV)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	up := decode[models.UploadResponse](t, rr)
	assert.Equal(t, 3, up.Rows)
	assert.Equal(t, 5, up.Columns)
	assert.Equal(t, []string{"Sales", "Units"}, up.Classification.Numeric)
	assert.Equal(t, []string{"Date"}, up.Classification.Temporal)
	assert.Equal(t, []string{"Region", "Product"}, up.Classification.Categorical)

	rr = ts.get("/api/charts")
	require.Equal(t, http.StatusOK, rr.Code)
	charts := decode[models.ChartsResponse](t, rr)

	kinds := make([]models.ChartKind, len(charts.Charts))
	for i, c := range charts.Charts {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []models.ChartKind{models.ChartLine, models.ChartBar, models.ChartPie, models.ChartScatter, models.ChartTreemap}, kinds)

	bar := charts.Charts[1].Bar
	require.NotNil(t, bar)
	assert.Equal(t, []models.GroupSum{{Key: "A", Sum: 17}, {Key: "B", Sum: 5}}, bar.Groups)

	line := charts.Charts[0].Line
	require.NotNil(t, line)
	require.Len(t, line.Points, 3)
	assert.Equal(t, []float64{5, 12, 5}, []float64{line.Points[0].Value, line.Points[1].Value, line.Points[2].Value})
}

func TestChartsQueryOverride(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	rr := ts.get("/api/charts?category_column=Product&group_value_column=Units")
	require.Equal(t, http.StatusOK, rr.Code)
	charts := decode[models.ChartsResponse](t, rr)

	assert.Equal(t, "Product", charts.Selection.CategoryColumn)
	assert.Equal(t, "Units by Product", charts.Charts[1].Title)

	// the override is not stored
	sel := decode[models.Selection](t, ts.get("/api/selection"))
	assert.Equal(t, "Region", sel.CategoryColumn)
}

func TestPutSelection(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	req := httptest.NewRequest(http.MethodPut, "/api/selection", strings.NewReader(`{"scatter_x":"Units","scatter_y":"Sales"}`))
	rr := ts.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	sel := decode[models.Selection](t, rr)
	assert.Equal(t, "Units", sel.ScatterX)
	assert.Equal(t, "Sales", sel.ScatterY)
	assert.Equal(t, "Region", sel.CategoryColumn)

	charts := decode[models.ChartsResponse](t, ts.get("/api/charts"))
	scatter := charts.Charts[3].Scatter
	require.NotNil(t, scatter)
	assert.Equal(t, "Units", scatter.X)
	assert.Equal(t, "Sales", scatter.Size)

	// a new upload resets the selection
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)
	sel = decode[models.Selection](t, ts.get("/api/selection"))
	assert.Equal(t, "Sales", sel.ScatterX)
}

func TestUploadRejected(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	rr := ts.upload("broken.csv", "a,b\n1,2\n3\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to read csv file")

	rr = ts.upload("legacy.xls", "whatever")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// previous dataset is untouched
	status := decode[models.StatusResponse](t, ts.get("/api/status"))
	assert.True(t, status.File.Loaded)
	assert.Equal(t, "sales.csv", status.File.Filename)
	assert.Equal(t, 3, status.File.Rows)
}

func TestUploadMissingFile(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPreviewAndColumnTypes(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	preview := decode[models.PreviewResponse](t, ts.get("/api/preview?rows=2"))
	assert.Equal(t, []string{"Region", "Product", "Date", "Sales", "Units"}, preview.Columns)
	require.Len(t, preview.Rows, 2)
	assert.Equal(t, "A", preview.Rows[0]["Region"])
	assert.Equal(t, 5.0, preview.Rows[0]["Sales"])

	types := decode[struct {
		Columns []struct {
			Name     string `json:"name"`
			Declared string `json:"declared"`
			Type     string `json:"type"`
		} `json:"columns"`
	}](t, ts.get("/api/column-types"))
	require.Len(t, types.Columns, 5)
	assert.Equal(t, "Date", types.Columns[2].Name)
	assert.Equal(t, "text", types.Columns[2].Declared)
	assert.Equal(t, "datetime", types.Columns[2].Type)
	assert.Equal(t, "numeric", types.Columns[3].Type)
}

func TestKPIs(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	kpis := decode[[]models.KPI](t, ts.get("/api/kpis"))
	require.Len(t, kpis, 2)
	assert.Equal(t, "Sales", kpis[0].Name)
	assert.Equal(t, 22.0, kpis[0].Value)
	assert.Equal(t, 5.0, kpis[0].Median)
}

func TestProfile(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	profiles := decode[[]struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		NonMissing int    `json:"non_missing"`
		Distinct   int    `json:"distinct"`
	}](t, ts.get("/api/profile"))
	require.Len(t, profiles, 5)
	assert.Equal(t, "Region", profiles[0].Name)
	assert.Equal(t, "categorical", profiles[0].Type)
	assert.Equal(t, 3, profiles[0].NonMissing)
	assert.Equal(t, 2, profiles[0].Distinct)
	assert.Equal(t, "datetime", profiles[2].Type)
}

func TestEChartsAndPNG(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	opts := decode[struct {
		Options []map[string]interface{} `json:"options"`
	}](t, ts.get("/api/charts/echarts"))
	assert.Len(t, opts.Options, 5)

	rr := ts.get("/api/charts/1.png")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusUnprocessableEntity, ts.get("/api/charts/4.png").Code, "treemap")
	assert.Equal(t, http.StatusNotFound, ts.get("/api/charts/9.png").Code)
	assert.Equal(t, http.StatusBadRequest, ts.get("/api/charts/x.png").Code)
}

func TestDownload(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.upload("sales.csv", salesCSV).Code)

	rr := ts.get("/api/download")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Processed_Data.csv")

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Product", "Date", "Sales", "Units"}, records[0])
	assert.Equal(t, []string{"A", "x", "2024-01-03", "5", "1"}, records[1])

	rr = ts.get("/api/download?format=parquet")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Processed_Data.parquet")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PAR1")))

	assert.Equal(t, http.StatusBadRequest, ts.get("/api/download?format=xml").Code)
}

type fakeDB struct {
	connectErr error
	tables     map[string]*models.Dataset
	closed     bool
}

func (f *fakeDB) Connect(context.Context, models.DataSourceConfig) error { return f.connectErr }
func (f *fakeDB) Close() error { f.closed = true; return nil }
func (f *fakeDB) ListTables(context.Context) ([]string, error) {
	names := []string{}
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}
func (f *fakeDB) LoadTable(_ context.Context, table string, _ int) (*models.Dataset, error) {
	ds, ok := f.tables[table]
	if !ok {
		return nil, service.ErrTableNotFound
	}
	return ds, nil
}

func TestDatabaseRoutes(t *testing.T) {
	ts := newTestServer(t)
	db := &fakeDB{tables: map[string]*models.Dataset{
		"orders": models.NewDataset("orders",
			models.NewColumn("Region", models.KindText, "A", "B"),
			models.NewColumn("Amount", models.KindNumber, 1.0, 2.0),
		),
	}}
	ts.handler.NewDataSource = func() service.DataSource { return db }

	assert.Equal(t, http.StatusConflict, ts.get("/api/db/tables").Code, "not connected")

	rr := ts.do(httptest.NewRequest(http.MethodPost, "/api/db/connect", strings.NewReader(`{"type":"mysql"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(httptest.NewRequest(http.MethodPost, "/api/db/connect", strings.NewReader(`{"type":"postgres","host":"db"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	tables := decode[map[string][]string](t, ts.get("/api/db/tables"))
	assert.Equal(t, []string{"orders"}, tables["tables"])

	rr = ts.do(httptest.NewRequest(http.MethodPost, "/api/db/load", strings.NewReader(`{"table_name":"missing"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(httptest.NewRequest(http.MethodPost, "/api/db/load", strings.NewReader(`{"table_name":"orders"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	up := decode[models.UploadResponse](t, rr)
	assert.Equal(t, []string{"Amount"}, up.Classification.Numeric)

	status := decode[models.StatusResponse](t, ts.get("/api/status"))
	assert.Equal(t, "postgres", status.File.Source)
	assert.Equal(t, "orders", status.File.Filename)
}

func TestConnectFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.handler.NewDataSource = func() service.DataSource { return &fakeDB{connectErr: errors.New("refused")} }

	rr := ts.do(httptest.NewRequest(http.MethodPost, "/api/db/connect", strings.NewReader(`{"host":"db"}`)))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "refused")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&service.ParseError{Format: "csv", Err: service.ErrEmptyFile}, http.StatusBadRequest},
		{state.ErrNoSession, http.StatusUnauthorized},
		{state.ErrNoDataset, http.StatusConflict},
		{service.ErrTableNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
