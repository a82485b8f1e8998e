package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/derHeinz/dlna-mediacontroller/internal/api"
)

const defaultQueryLimit = 100
const maxQueryLimit = 1000

// RegisterRoutes wires the read-only audit listing endpoint.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/audit", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		limit := defaultQueryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		if limit > maxQueryLimit {
			limit = maxQueryLimit
		}

		records, err := service.Query(limit)
		if err != nil {
			return err
		}
		if records == nil {
			records = []Record{}
		}
		return api.WriteResource(w, http.StatusOK, records)
	}))
}
