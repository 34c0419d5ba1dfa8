package api

import (
	"fmt"
	"net/http"
	"time"

	"tonnenheld/internal/report"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.svc.List(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}

	filename := fmt.Sprintf("tonnenheld-%s.xlsx", time.Now().Format(dateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := report.Write(w, bookings, stats); err != nil {
		s.logger.Error().Err(err).Msg("excel export failed")
	}
}
