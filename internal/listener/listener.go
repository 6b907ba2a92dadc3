package listener

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/engagelively/sdtp/internal/dispatch"
	"github.com/engagelively/sdtp/internal/logging"
	"github.com/engagelively/sdtp/internal/metrics"
	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RequestIDHeader carries the ID of a request. Clients may set it, otherwise one is generated.
const RequestIDHeader = "X-Request-Id"

// maxBodySize limits the size of request bodies.
const maxBodySize = 8 << 20

type Listener struct {
	address    string
	dispatcher *dispatch.Dispatcher
	logger     *zap.SugaredLogger
	router     chi.Router
}

// Route describes one endpoint for the help listing.
type Route struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var routes = []Route{
	{http.MethodPost, "/get_filtered_rows", "Returns the rows of a table matching an optional filter, optionally narrowed to some columns."},
	{http.MethodGet, "/get_tables", "Returns the columns of every table by table name."},
	{http.MethodGet, "/get_all_values", "Returns the sorted distinct values of column_name in table table_name."},
	{http.MethodGet, "/get_range_spec", "Returns the smallest and largest value of column_name in table table_name."},
	{http.MethodGet, "/help", "Returns this list of routes."},
	{http.MethodGet, "/metrics", "Exposes Prometheus metrics."},
}

func NewListener(address string, dispatcher *dispatch.Dispatcher, logs *logging.Logging) *Listener {
	l := &Listener{
		address:    address,
		dispatcher: dispatcher,
		logger:     logs.GetChildLogger("listener"),
	}

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(l.requestID)
	r.Use(middleware.Recoverer)

	r.Post("/get_filtered_rows", l.GetFilteredRows)
	r.Get("/get_tables", l.GetTables)
	r.Get("/get_all_values", l.GetAllValues)
	r.Get("/get_range_spec", l.GetRangeSpec)
	r.Get("/", l.Help)
	r.Get("/help", l.Help)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		l.writeError(w, r, sdtp.NotFoundErrorf("no route %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		l.writeJSON(w, r, http.StatusMethodNotAllowed,
			sdtp.RequestErrorf("method %s is not allowed for %s", r.Method, r.URL.Path).Response())
	})

	l.router = r

	return l
}

// ServeHTTP implements http.Handler.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.router.ServeHTTP(w, r)
}

// Run serves requests until ctx is done, then shuts the server down gracefully.
func (l *Listener) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              l.address,
		Handler:           l,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		l.logger.Infof("Starting listener on http://%s", l.address)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		l.logger.Info("Shutting down listener")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}

func (l *Listener) GetFilteredRows(w http.ResponseWriter, r *http.Request) {
	var req sdtp.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		l.writeError(w, r, sdtp.RequestErrorf("cannot parse JSON body: %v", err))
		return
	}

	resp, err := l.dispatcher.GetFilteredRows(r.Context(), &req)
	if err != nil {
		l.writeError(w, r, err)
		return
	}

	l.writeJSON(w, r, http.StatusOK, resp)
}

func (l *Listener) GetTables(w http.ResponseWriter, r *http.Request) {
	tables, err := l.dispatcher.Tables(r.Context())
	if err != nil {
		l.writeError(w, r, err)
		return
	}

	l.writeJSON(w, r, http.StatusOK, tables)
}

func (l *Listener) GetAllValues(w http.ResponseWriter, r *http.Request) {
	tableName, column, err := tableAndColumn(r)
	if err != nil {
		l.writeError(w, r, err)
		return
	}

	values, err := l.dispatcher.AllValues(r.Context(), tableName, column)
	if err != nil {
		l.writeError(w, r, err)
		return
	}

	l.writeJSON(w, r, http.StatusOK, values)
}

func (l *Listener) GetRangeSpec(w http.ResponseWriter, r *http.Request) {
	tableName, column, err := tableAndColumn(r)
	if err != nil {
		l.writeError(w, r, err)
		return
	}

	spec, err := l.dispatcher.RangeSpec(r.Context(), tableName, column)
	if err != nil {
		l.writeError(w, r, err)
		return
	}

	l.writeJSON(w, r, http.StatusOK, spec)
}

func (l *Listener) Help(w http.ResponseWriter, r *http.Request) {
	l.writeJSON(w, r, http.StatusOK, routes)
}

func tableAndColumn(r *http.Request) (string, string, error) {
	query := r.URL.Query()

	tableName := query.Get("table_name")
	if tableName == "" {
		return "", "", sdtp.RequestErrorf("missing query parameter table_name")
	}

	column := query.Get("column_name")
	if column == "" {
		return "", "", sdtp.RequestErrorf("missing query parameter column_name")
	}

	return tableName, column, nil
}

func (l *Listener) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := sdtp.AsError(err)
	if e.Kind == sdtp.KindInternal {
		l.loggerFor(r).Errorw("Cannot answer request", zap.String("path", r.URL.Path), zap.Error(err))
	}

	l.writeJSON(w, r, e.Kind.HTTPStatus(), e.Response())
}

func (l *Listener) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.loggerFor(r).Warnw("Cannot write response", zap.Error(err))
	}
}

type requestIDKey struct{}

// requestID tags every request with an ID, passes it back in the response headers
// and attaches it to the request logger.
func (l *Listener) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (l *Listener) loggerFor(r *http.Request) *zap.SugaredLogger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return l.logger.With(zap.String("request_id", id))
	}

	return l.logger
}
