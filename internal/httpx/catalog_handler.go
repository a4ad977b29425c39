package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/go-chi/chi/v5"
)

// CatalogSource is satisfied by *catalog.Cache.
type CatalogSource interface {
	GetCatalog(ctx context.Context, q skips.Query) (skips.Catalog, error)
}

type CatalogHandler struct {
	Catalog  CatalogSource
	Defaults skips.Query
}

type skipResp struct {
	skips.Skip
	TotalPrice      string `json:"total_price"`
	DisplayPrice    string `json:"display_price"`
	CapacityPercent string `json:"capacity_percent"`
}

type catalogResp struct {
	Postcode string     `json:"postcode"`
	Area     string     `json:"area"`
	Skips    []skipResp `json:"skips"`
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/catalog", h.getCatalog)
}

func (h *CatalogHandler) getCatalog(w http.ResponseWriter, r *http.Request) {
	q := skips.Query{
		Postcode: r.URL.Query().Get("postcode"),
		Area:     r.URL.Query().Get("area"),
	}.WithDefaults(h.Defaults)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cat, err := h.Catalog.GetCatalog(ctx, q)
	if err != nil {
		writeError(w, catalogStatus(err), err.Error())
		return
	}

	sorted := cat.SortedBySize()
	out := catalogResp{Postcode: q.Postcode, Area: q.Area, Skips: make([]skipResp, 0, len(sorted))}
	for _, s := range sorted {
		total, err := s.TotalPrice()
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		out.Skips = append(out.Skips, skipResp{
			Skip:            s,
			TotalPrice:      total.StringFixed(2),
			DisplayPrice:    skips.FormatGBP(total),
			CapacityPercent: sorted.CapacityPercent(s).String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func catalogStatus(err error) int {
	var (
		inv   *skips.InvariantError
		empty *skips.EmptyCatalogError
	)
	switch {
	case errors.As(err, &inv):
		return http.StatusBadRequest
	case errors.As(err, &empty):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
