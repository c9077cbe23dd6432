// internal/handlers/salesforce/salesforce_handler.go
package salesforce

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sf "crmsync-service/internal/domain/salesforce"
	"crmsync-service/internal/middleware"
	"crmsync-service/internal/pkg/response"
)

// SyncService is the part of the sync orchestrator the trigger API uses.
type SyncService interface {
	UpsertContact(ctx context.Context, customerID int64, addressID *int64) (*sf.SyncResult, error)
	SyncOrder(ctx context.Context, orderID int64) (*sf.SyncResult, error)
	CheckToken(ctx context.Context) error
	ListSyncLog(ctx context.Context, filters *sf.SyncLogFilters) (*sf.SyncLogListResponse, error)
}

type SalesforceHandler struct {
	service SyncService
	logger  *zap.Logger
}

func NewSalesforceHandler(service SyncService, logger *zap.Logger) *SalesforceHandler {
	return &SalesforceHandler{
		service: service,
		logger:  logger,
	}
}

// HTTPStatus maps a sync outcome to the trigger API status code.
func HTTPStatus(status sf.SyncStatus) int {
	switch status {
	case sf.StatusSuccess:
		return http.StatusOK
	case sf.StatusRejected, sf.StatusMalformedInput:
		return http.StatusUnprocessableEntity
	case sf.StatusNotFound:
		return http.StatusNotFound
	case sf.StatusSkipped, sf.StatusBusy:
		return http.StatusConflict
	case sf.StatusUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UpsertContact pushes one customer to the CRM
func (h *SalesforceHandler) UpsertContact(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Param("customer_id"), 10, 64)
	if err != nil || customerID <= 0 {
		response.ValidationError(c, "invalid customer ID", err)
		return
	}

	var addressID *int64
	if raw := c.Query("address_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.ValidationError(c, "invalid address ID", err)
			return
		}
		addressID = &id
	}

	result, err := h.service.UpsertContact(c.Request.Context(), customerID, addressID)
	h.respond(c, "contact upsert", result, err)
}

// SyncOrder pushes one order to the CRM
func (h *SalesforceHandler) SyncOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		response.ValidationError(c, "invalid order ID", err)
		return
	}

	result, err := h.service.SyncOrder(c.Request.Context(), orderID)
	h.respond(c, "order sync", result, err)
}

// TokenStatus reports whether a CRM token can currently be obtained
func (h *SalesforceHandler) TokenStatus(c *gin.Context) {
	checkedAt := time.Now().UTC()
	if err := h.service.CheckToken(c.Request.Context()); err != nil {
		h.logger.Warn("salesforce token check failed", zap.Error(err))
		response.Error(c, http.StatusBadGateway, "salesforce token unavailable", err, gin.H{
			"available":  false,
			"checked_at": checkedAt,
		})
		return
	}

	response.Success(c, http.StatusOK, "salesforce token available", gin.H{
		"available":  true,
		"checked_at": checkedAt,
	})
}

// ListSyncLog lists recorded sync attempts
func (h *SalesforceHandler) ListSyncLog(c *gin.Context) {
	var filters sf.SyncLogFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid filters", err)
		return
	}

	result, err := h.service.ListSyncLog(c.Request.Context(), &filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list sync log", err)
		return
	}

	response.Success(c, http.StatusOK, "sync log retrieved", result)
}

func (h *SalesforceHandler) respond(c *gin.Context, operation string, result *sf.SyncResult, err error) {
	if err != nil {
		h.logger.Error(operation+" failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		response.Error(c, http.StatusInternalServerError, operation+" failed", err)
		return
	}

	status := HTTPStatus(result.Status)
	if status == http.StatusOK {
		response.Success(c, status, operation+" succeeded", result)
		return
	}

	message := result.Message
	if message == "" {
		message = operation + " " + string(result.Status)
	}
	response.Error(c, status, message, nil, result)
}
