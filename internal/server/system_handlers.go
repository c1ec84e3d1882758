package server

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/riskmetrics/internal/database"
)

// SystemHandlers serves process and database health information.
type SystemHandlers struct {
	marketDB  *database.DB
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(marketDB *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		marketDB:  marketDB,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleSystemStatus returns process resource usage and uptime.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg := 0.0
	if percents, err := cpu.Percent(100*time.Millisecond, false); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	} else if len(percents) > 0 {
		cpuAvg = percents[0]
	}

	memUsed := 0.0
	if memStat, err := mem.VirtualMemory(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	} else {
		memUsed = memStat.UsedPercent
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "running",
		"uptime_seconds":      int64(time.Since(h.startedAt).Seconds()),
		"cpu_percent":         cpuAvg,
		"memory_used_percent": memUsed,
	})
}

// HandleDatabaseStats returns market database size information.
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.marketDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to read database stats",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":           h.marketDB.Name(),
		"size_bytes":     stats.SizeBytes,
		"wal_size_bytes": stats.WALSizeBytes,
		"page_count":     stats.PageCount,
		"page_size":      stats.PageSize,
	})
}

// exportableTables is the allow-list for CSV export; the table name is
// interpolated into the query, so nothing outside it may pass through.
var exportableTables = map[string]bool{
	"daily_prices": true,
	"instruments":  true,
	"portfolios":   true,
	"risk_reports": true,
}

// HandleExportTable streams one table as a CSV attachment.
// GET /api/system/database/export/{table}
func (h *SystemHandlers) HandleExportTable(w http.ResponseWriter, r *http.Request, table string) {
	if !exportableTables[table] {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "unknown table",
		})
		return
	}

	rows, err := h.marketDB.Conn().QueryContext(r.Context(), "SELECT * FROM "+table)
	if err != nil {
		h.log.Error().Err(err).Str("table", table).Msg("Failed to query table for export")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to export table",
		})
		return
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		h.log.Error().Err(err).Str("table", table).Msg("Failed to read export columns")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to export table",
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", table+".csv"))

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		h.log.Error().Err(err).Str("table", table).Msg("Failed to write CSV header")
		return
	}

	values := make([]sql.NullString, len(columns))
	scanTargets := make([]interface{}, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	record := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			h.log.Error().Err(err).Str("table", table).Msg("Failed to scan export row")
			return
		}
		for i, v := range values {
			record[i] = v.String
		}
		if err := cw.Write(record); err != nil {
			h.log.Error().Err(err).Str("table", table).Msg("Failed to write CSV row")
			return
		}
	}
	if err := rows.Err(); err != nil {
		h.log.Error().Err(err).Str("table", table).Msg("Failed to iterate export rows")
		return
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Error().Err(err).Str("table", table).Msg("Failed to flush CSV export")
	}
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
