package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.PATCH("/api/libros/:id/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/libros/"+id+"/status", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/api/libros/:id/status", http.MethodPatch, "200"))
	assert.Equal(t, 2.0, got)
}

func TestMiddleware_Unmatched(t *testing.T) {
	m := New()
	r := gin.New()
	r.Use(m.Middleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404")))
}

func TestLifecycleCounters(t *testing.T) {
	m := New()
	m.BookCreated()
	m.PurchaseRegistered()
	m.StatusChanged("LEYENDO")
	m.StatusChanged("LEYENDO")
	m.EventPublished("book.status")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.booksCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchases))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("LEYENDO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("book.status")))
}

func TestStatusChanged_FoldsUnknownStatuses(t *testing.T) {
	m := New()
	m.StatusChanged(models.StatusFinished)
	m.StatusChanged("ABANDONADO")
	m.StatusChanged("releyendo por tercera vez")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues(models.StatusFinished)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statusChanges.WithLabelValues(otherStatus)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.statusChanges))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookCreated()
		m.PurchaseRegistered()
		m.StatusChanged("x")
		m.EventPublished("x")
	})
}

func TestHandlerExposesSeries(t *testing.T) {
	m := New()
	m.BookCreated()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "booktracker_books_created_total 1")
}
