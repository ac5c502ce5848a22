package lifecycle

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"booktracker/internal/catalog"
	"booktracker/internal/logger"
)

// Error messages returned to clients. Underlying errors are logged, not sent.
const (
	msgInternal        = "Error interno"
	msgCreateBook      = "Error creando libro"
	msgMissingPurchase = "Faltan datos obligatorios"
	msgPurchase        = "Error registrando compra"
	msgStatus          = "Error actualizando estado"
	msgFinished        = "Error obteniendo leídos"
	msgAux             = "Error cargando datos"
	msgBookNotFound    = "Libro no encontrado"
	msgInvalidID       = "id inválido"
)

type Handler struct {
	Service *Service
	Logger  *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.dashboard)
	rg.POST("/libros", h.createBook)
	rg.POST("/compra", h.registerPurchase)
	rg.PATCH("/libros/:id/status", h.setStatus)
	rg.GET("/libros/leidos", h.listFinished)
	rg.GET("/datos-generales", h.auxiliary)
}

func (h *Handler) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		logger.FromContext(c, h.Logger).Error(msg, "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.Service.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, msgInternal, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) createBook(c *gin.Context) {
	var in CreateBookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, msgCreateBook, err)
		return
	}

	b, err := h.Service.CreateBook(c.Request.Context(), in)
	if err != nil {
		h.fail(c, http.StatusBadRequest, msgCreateBook, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) registerPurchase(c *gin.Context) {
	var in PurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, msgMissingPurchase, err)
		return
	}

	b, err := h.Service.RegisterPurchase(c.Request.Context(), in)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, b)
	case errors.Is(err, ErrValidation):
		h.fail(c, http.StatusBadRequest, msgMissingPurchase, nil)
	case errors.Is(err, catalog.ErrBookNotFound):
		h.fail(c, http.StatusNotFound, msgBookNotFound, nil)
	default:
		h.fail(c, http.StatusInternalServerError, msgPurchase, err)
	}
}

func (h *Handler) setStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var in StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, msgStatus, err)
		return
	}

	b, err := h.Service.SetStatus(c.Request.Context(), id, in)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, b)
	case errors.Is(err, ErrValidation):
		h.fail(c, http.StatusBadRequest, msgStatus, nil)
	case errors.Is(err, catalog.ErrBookNotFound):
		h.fail(c, http.StatusNotFound, msgBookNotFound, nil)
	default:
		h.fail(c, http.StatusInternalServerError, msgStatus, err)
	}
}

func (h *Handler) listFinished(c *gin.Context) {
	var p FinishedParams
	if err := c.ShouldBindQuery(&p); err != nil {
		h.fail(c, http.StatusBadRequest, msgFinished, err)
		return
	}

	page, err := h.Service.ListFinished(c.Request.Context(), p)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, msgFinished, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) auxiliary(c *gin.Context) {
	aux, err := h.Service.Auxiliary(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, msgAux, err)
		return
	}
	c.JSON(http.StatusOK, aux)
}
