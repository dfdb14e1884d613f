package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/eventsphere/eventsphere/internal/api/models"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/disk"
)

func (h *AdminHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.db.GetDashboardMetrics(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err, "failed to get dashboard metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetTimeSeries returns monthly counts for ?type=users|events|reports.
func (h *AdminHandler) GetTimeSeries(c *gin.Context) {
	points, err := h.db.GetTimeSeries(c.Request.Context(), database.TimeSeriesType(c.Query("type")))
	if err != nil {
		respondError(c, err, "failed to get time series")
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetBreakdown returns grouped counts for ?type=userRoles|eventStatuses.
func (h *AdminHandler) GetBreakdown(c *gin.Context) {
	entries, err := h.db.GetBreakdown(c.Request.Context(), database.BreakdownType(c.Query("type")))
	if err != nil {
		respondError(c, err, "failed to get breakdown")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetSystemMetrics reports the size of the database file and the usage of the volume it lives on.
func (h *AdminHandler) GetSystemMetrics(c *gin.Context) {
	path := h.config.Database.Path
	metrics := models.SystemMetrics{DatabasePath: path}

	if info, err := os.Stat(path); err == nil {
		size, _ := safecast.Convert[uint64](info.Size())
		metrics.DatabaseSize = size
		metrics.DatabaseSizeHuman = humanize.Bytes(size)
	} else {
		log.Warn("failed to stat database file", "path", path, "error", err)
	}

	usage, err := disk.UsageWithContext(c.Request.Context(), filepath.Dir(path))
	if err != nil {
		log.Warn("failed to read disk usage", "path", path, "error", err)
	} else {
		metrics.DiskTotal = usage.Total
		metrics.DiskFree = usage.Free
		metrics.DiskFreeHuman = humanize.Bytes(usage.Free)
		metrics.DiskUsedPercent = usage.UsedPercent
	}

	if h.clients != nil {
		metrics.RealtimeClients = h.clients.Count()
	}
	c.JSON(http.StatusOK, metrics)
}

// Export streams one table as a CSV attachment.
func (h *AdminHandler) Export(c *gin.Context) {
	kind := database.ExportType(c.Param("type"))
	header, rows, err := h.db.Export(c.Request.Context(), kind)
	if err != nil {
		respondError(c, err, "failed to export data")
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", kind, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(header); err != nil {
		log.Error("failed to write export", "type", kind, "error", err)
		return
	}
	if err := w.WriteAll(rows); err != nil {
		log.Error("failed to write export", "type", kind, "error", err)
	}
}
