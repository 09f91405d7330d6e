package api

import (
	"bytes"
	"dashxcel/internal/analysis"
	"dashxcel/internal/models"
	"dashxcel/internal/render"
	"dashxcel/internal/service"
	"dashxcel/internal/state"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	DefaultMaxUploadBytes = 100 * 1024 * 1024 // 100MB
	DefaultPreviewRows    = 5
	DefaultDBLimit        = 10000
)

type Handler struct {
	Store          *state.Store
	Analysis       *analysis.Service
	Ingest         *service.IngestService
	Export         *service.ExportService
	ECharts        *render.EChartsGenerator
	PNG            *render.PNGRenderer
	Logger         *zap.Logger
	MaxUploadBytes int64
	DBLimit        int
	SessionTTL     time.Duration
	// NewDataSource opens database connections for /api/db/connect.
	NewDataSource func() service.DataSource
}

func NewHandler(store *state.Store, svc *analysis.Service, ingest *service.IngestService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:          store,
		Analysis:       svc,
		Ingest:         ingest,
		Export:         service.NewExportService(),
		ECharts:        render.NewEChartsGenerator(nil),
		PNG:            render.NewPNGRenderer(nil),
		Logger:         logger,
		MaxUploadBytes: DefaultMaxUploadBytes,
		DBLimit:        DefaultDBLimit,
		SessionTTL:     2 * time.Hour,
		NewDataSource: func() service.DataSource {
			return service.NewPostgresDataSource()
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.WithSession)

		r.Post("/upload", h.Upload)
		r.Get("/status", h.GetStatus)
		r.Get("/preview", h.GetPreview)
		r.Get("/column-types", h.GetColumnTypes)
		r.Get("/kpis", h.GetKPIs)
		r.Get("/profile", h.GetProfile)

		r.Get("/selection", h.GetSelection)
		r.Put("/selection", h.PutSelection)

		r.Get("/charts", h.GetCharts)
		r.Get("/charts/echarts", h.GetEChartsOptions)
		r.Get("/charts/{index}.png", h.GetChartPNG)

		r.Get("/download", h.Download)

		// DB Routes
		r.Post("/db/connect", h.ConnectDB)
		r.Get("/db/tables", h.ListTables)
		r.Post("/db/load", h.LoadTable)
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("DashXcel: Interactive Excel Dashboard. Upload a workbook to POST /api/upload.\n"))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Upload
// ============================================================================

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("File too large (limit %d bytes)", h.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	// Get file from form
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}

	ds, err := h.Ingest.Decode(r.Context(), header.Filename, data)
	if err != nil {
		h.Logger.Info("Upload rejected",
			zap.String("session_id", sessionID(r)),
			zap.String("filename", header.Filename),
			zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.storeDataset(r, header.Filename, "upload", ds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.Logger.Info("Dataset loaded",
		zap.String("session_id", sess.ID),
		zap.String("filename", header.Filename),
		zap.Int("rows", sess.Dataset.NumRows()),
		zap.Int("columns", sess.Dataset.NumColumns()))

	writeJSON(w, models.UploadResponse{
		Message:        fmt.Sprintf("File '%s' uploaded successfully", header.Filename),
		SessionID:      sess.ID,
		Rows:           sess.Dataset.NumRows(),
		Columns:        sess.Dataset.NumColumns(),
		ColumnNames:    sess.Dataset.Names(),
		Classification: sess.Classification,
	})
}

// storeDataset classifies ds and makes it the session's dataset.
func (h *Handler) storeDataset(r *http.Request, name, source string, ds *models.Dataset) (state.Session, error) {
	res := h.Analysis.Analyze(ds)
	return h.Store.ReplaceDataset(sessionID(r), name, source, ds, res.Dataset, res.Classification)
}

// ============================================================================
// Status
// ============================================================================

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Store.Get(sessionID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := models.StatusResponse{
		SessionID: sess.ID,
		File:      models.FileStatus{Loaded: sess.HasDataset()},
	}
	if sess.HasDataset() {
		resp.File.Rows = sess.Dataset.NumRows()
		resp.File.Columns = sess.Dataset.NumColumns()
		resp.File.Filename = sess.FileName
		resp.File.Source = sess.Source
		resp.Selection = analysis.ResolveSelection(sess.Classification, sess.Selection)
	}
	writeJSON(w, resp)
}

// ============================================================================
// Preview
// ============================================================================

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	rows := getIntParam(r, "rows", DefaultPreviewRows)

	writeJSON(w, models.PreviewResponse{
		Columns: sess.Dataset.Names(),
		Rows:    sess.Dataset.Head(rows),
	})
}

// ============================================================================
// Column Types
// ============================================================================

func (h *Handler) GetColumnTypes(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}

	columns := make([]models.ColumnInfo, 0, sess.Raw.NumColumns())
	for _, col := range sess.Raw.Columns {
		columns = append(columns, models.ColumnInfo{
			Name:     col.Name,
			Declared: col.Kind,
			Type:     sess.Classification.ColumnType(col.Name),
			Missing:  col.Len() - col.NonMissing(),
		})
	}
	writeJSON(w, models.ColumnTypesResponse{
		Columns:        columns,
		Classification: sess.Classification,
	})
}

// ============================================================================
// KPIs
// ============================================================================

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.Analysis.KPIs(result(sess)))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	writeJSON(w, analysis.Profile(sess.Raw, sess.Classification))
}

// ============================================================================
// Selection
// ============================================================================

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	writeJSON(w, analysis.ResolveSelection(sess.Classification, sess.Selection))
}

// PutSelection stores the user's choices. Fields left empty keep following
// the default column of their group.
func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loaded(w, r); !ok {
		return
	}

	var sel models.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	sess, err := h.Store.Update(sessionID(r), func(s *state.Session) {
		s.Selection = sel
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, analysis.ResolveSelection(sess.Classification, sess.Selection))
}

// selectionFromQuery reads selection overrides from query parameters.
func selectionFromQuery(r *http.Request) models.Selection {
	q := r.URL.Query()
	return models.Selection{
		DateColumn:      q.Get("date_column"),
		TimeValueColumn: q.Get("time_value_column"),
		CategoryColumn:  q.Get("category_column"),
		GroupValue:      q.Get("group_value_column"),
		ScatterX:        q.Get("scatter_x"),
		ScatterY:        q.Get("scatter_y"),
		TreemapLevel1:   q.Get("treemap_level1"),
		TreemapLevel2:   q.Get("treemap_level2"),
		TreemapValue:    q.Get("treemap_value"),
	}
}

// ============================================================================
// Charts
// ============================================================================

// charts evaluates the chart rules for the session, with query parameters
// overriding the stored selection.
func (h *Handler) charts(r *http.Request, sess state.Session) (models.Selection, []models.ChartRequest) {
	sel := selectionFromQuery(r).Merge(sess.Selection)
	reqs := slices.Collect(h.Analysis.Charts(result(sess), sel))
	if reqs == nil {
		reqs = []models.ChartRequest{}
	}
	return analysis.ResolveSelection(sess.Classification, sel), reqs
}

func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	sel, reqs := h.charts(r, sess)
	writeJSON(w, models.ChartsResponse{Selection: sel, Charts: reqs})
}

func (h *Handler) GetEChartsOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	_, reqs := h.charts(r, sess)

	options, err := h.ECharts.Options(reqs)
	if err != nil {
		h.Logger.Warn("Some charts could not be rendered",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
	writeJSON(w, map[string]interface{}{"options": options})
}

func (h *Handler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid chart index", http.StatusBadRequest)
		return
	}

	_, reqs := h.charts(r, sess)
	if index < 0 || index >= len(reqs) {
		http.Error(w, fmt.Sprintf("Chart %d not found", index), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.PNG.Render(&buf, reqs[index]); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ============================================================================
// Download
// ============================================================================

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loaded(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	var buf bytes.Buffer
	var filename, contentType string
	var err error

	switch format {
	case "", "csv":
		filename, contentType = service.CSVFileName, "text/csv; charset=utf-8"
		err = h.Export.WriteCSV(&buf, sess.Dataset)
	case "parquet":
		filename, contentType = service.ParquetFileName, "application/vnd.apache.parquet"
		err = h.Export.WriteParquet(&buf, sess.Dataset)
	default:
		http.Error(w, fmt.Sprintf("Unknown format %q (want csv or parquet)", format), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Logger.Error("Export failed", zap.String("format", format), zap.Error(err))
		http.Error(w, "Failed to export data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}

// ============================================================================
// Database
// ============================================================================

// ConnectDB establishes a database connection
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var config models.DataSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// Currently only Postgres supported
	if config.Type != "" && config.Type != "postgres" {
		http.Error(w, "Only postgres is supported currently", http.StatusBadRequest)
		return
	}

	ds := h.NewDataSource()
	if err := ds.Connect(r.Context(), config); err != nil {
		http.Error(w, fmt.Sprintf("Failed to connect: %v", err), http.StatusBadGateway)
		return
	}

	var previous service.DataSource
	_, err := h.Store.Update(sessionID(r), func(s *state.Session) {
		previous, s.DB = s.DB, ds
	})
	if err != nil {
		ds.Close()
		h.writeError(w, err)
		return
	}
	if previous != nil {
		previous.Close()
	}

	writeJSON(w, map[string]string{"status": "connected"})
}

// ListTables returns tables from connected DB
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	db, ok := h.database(w, r)
	if !ok {
		return
	}

	tables, err := db.ListTables(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Error listing tables: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"tables": tables})
}

// LoadTable makes a database table the session's dataset
func (h *Handler) LoadTable(w http.ResponseWriter, r *http.Request) {
	db, ok := h.database(w, r)
	if !ok {
		return
	}

	var req struct {
		TableName string `json:"table_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TableName == "" {
		http.Error(w, "Invalid JSON: table_name is required", http.StatusBadRequest)
		return
	}

	ds, err := db.LoadTable(r.Context(), req.TableName, h.DBLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sess, err := h.storeDataset(r, req.TableName, "postgres", ds)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, models.UploadResponse{
		Message:        fmt.Sprintf("Table '%s' loaded successfully", req.TableName),
		SessionID:      sess.ID,
		Rows:           sess.Dataset.NumRows(),
		Columns:        sess.Dataset.NumColumns(),
		ColumnNames:    sess.Dataset.Names(),
		Classification: sess.Classification,
	})
}

func (h *Handler) database(w http.ResponseWriter, r *http.Request) (service.DataSource, bool) {
	sess, err := h.Store.Get(sessionID(r))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	if sess.DB == nil {
		h.writeError(w, service.ErrNotConnected)
		return nil, false
	}
	return sess.DB, true
}

// ============================================================================
// Helpers
// ============================================================================

// loaded fetches the request's session and fails the request when no
// dataset has been loaded.
func (h *Handler) loaded(w http.ResponseWriter, r *http.Request) (state.Session, bool) {
	sess, err := h.Store.Get(sessionID(r))
	if err == nil && !sess.HasDataset() {
		err = state.ErrNoDataset
	}
	if err != nil {
		h.writeError(w, err)
		return state.Session{}, false
	}
	return sess, true
}

func result(sess state.Session) analysis.Result {
	return analysis.Result{Dataset: sess.Dataset, Classification: sess.Classification}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var perr *service.ParseError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadRequest
	case errors.Is(err, state.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, state.ErrNoDataset), errors.Is(err, service.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, service.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, render.ErrUnsupportedChart), errors.Is(err, render.ErrEmptyChart):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
