package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/autodata/internal/api/chromedata"
	"github.com/langchou/autodata/internal/models"
	"github.com/langchou/autodata/internal/service"
	"github.com/langchou/autodata/internal/validation"
	"github.com/langchou/autodata/internal/vehicle"
	"github.com/langchou/autodata/pkg/ws"
)

const (
	defaultLookupLimit = 20
	maxLookupLimit     = 100
)

// VehicleLookup 车辆查询
type VehicleLookup interface {
	GetVehicleDetails(ctx context.Context, vin string) (*vehicle.Details, error)
	GetVehicleReport(ctx context.Context, vin string) ([]byte, error)
}

// LookupHistory 查询历史
type LookupHistory interface {
	ListRecent(ctx context.Context, limit int) ([]*models.Lookup, error)
	ListByVIN(ctx context.Context, vin string, limit int) ([]*models.Lookup, error)
}

// Handler HTTP 处理器
type Handler struct {
	logger   *zap.Logger
	lookups  VehicleLookup
	history  LookupHistory // 为 nil 时不提供历史接口
	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	lookups VehicleLookup,
	history LookupHistory,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:  logger,
		lookups: lookups,
		history: history,
		wsHub:   wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 只推送查询状态，允许所有来源
			},
		},
	}
}

// GetVehicleDetails 获取车辆信息
// GET /vehicle-info/vin/:vin
func (h *Handler) GetVehicleDetails(c *gin.Context) {
	details, err := h.lookups.GetVehicleDetails(c.Request.Context(), c.Param("vin"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetVehicleReport 获取车辆 PDF 报告
// GET /vehicle-info/report/:vin
func (h *Handler) GetVehicleReport(c *gin.Context) {
	pdf, err := h.lookups.GetVehicleReport(c.Request.Context(), c.Param("vin"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	vin := validation.NormalizeVIN(c.Param("vin"))
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, vin))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListLookups 查询历史
// GET /vehicle-info/lookups?vin=&limit=
func (h *Handler) ListLookups(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLookupLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > maxLookupLimit {
		limit = maxLookupLimit
	}

	var lookups []*models.Lookup
	if vin := c.Query("vin"); vin != "" {
		vin = validation.NormalizeVIN(vin)
		if err := validation.ValidateVIN(vin); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lookups, err = h.history.ListByVIN(c.Request.Context(), vin, limit)
	} else {
		lookups, err = h.history.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		h.logger.Error("Failed to list lookups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list lookups"})
		return
	}
	if lookups == nil {
		lookups = []*models.Lookup{}
	}

	c.JSON(http.StatusOK, gin.H{"data": lookups})
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
		"history":    h.history != nil,
	})
}

// writeError 按错误分类返回状态码
func (h *Handler) writeError(c *gin.Context, err error) {
	vin := c.Param("vin")

	switch service.Classify(err) {
	case service.KindInvalidInput:
		msg := err.Error()
		if errors.Is(err, chromedata.ErrInvalidVIN) {
			msg = "Invalid VIN"
		} else if errors.Is(err, chromedata.ErrInvalidPayload) {
			msg = "Invalid response payload"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
	case service.KindReportFailure:
		h.logger.Error("Failed to generate report", zap.String("vin", vin), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate report"})
	default:
		h.logger.Error("Vehicle lookup failed", zap.String("vin", vin), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
	_ = c.Error(err)
}
