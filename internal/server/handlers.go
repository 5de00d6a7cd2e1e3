package server

import (
	"context"
	"net/http"

	"reportd/internal/report"
)

type panelInfo struct {
	Panel      report.PanelType `json:"panel"`
	PageSize   int              `json:"pageSize"`
	QueryLimit int              `json:"queryLimit"`
	Paginated  bool             `json:"paginated"`
}

func (s *Server) handleListPanels(w http.ResponseWriter, r *http.Request) {
	panels := report.Panels()
	out := make([]panelInfo, 0, len(panels))
	for _, p := range panels {
		spec := report.Spec(p)
		out = append(out, panelInfo{
			Panel:      p,
			PageSize:   spec.PageSize,
			QueryLimit: spec.QueryLimit,
			Paginated:  !spec.TimestampBounded,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	panel, known := panelParam(r)
	if !known {
		writeError(w, "unknown panel", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot(panel))
}

// paginatedPanel resolves {panel} for the pagination and filter routes, which
// must not touch panels without a pagination window (the wallets snapshot).
func (s *Server) paginatedPanel(w http.ResponseWriter, r *http.Request) (report.PanelType, bool) {
	panel, known := panelParam(r)
	if !known {
		writeError(w, "unknown panel", http.StatusNotFound)
		return panel, false
	}
	if report.Spec(panel).TimestampBounded {
		writeError(w, "panel has no pagination window", http.StatusBadRequest)
		return panel, false
	}
	return panel, true
}

// handleFetch requests the next history page for a panel without moving the
// window. The fetch runs in the background; the caller polls the snapshot.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	s.metrics.CountAction(string(panel), "fetch")
	s.background(r, panel)
	writeJSON(w, http.StatusAccepted, s.session.Snapshot(panel))
}

type pageRequest struct {
	Page int `json:"page"`
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	var req pageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.metrics.CountAction(string(panel), "next")

	code := http.StatusOK
	if s.session.FetchNext(panel, req.Page) {
		s.background(r, panel)
		code = http.StatusAccepted
	}
	writeJSON(w, code, s.session.Snapshot(panel))
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	s.metrics.CountAction(string(panel), "prev")
	s.session.FetchPrev(panel)
	writeJSON(w, http.StatusOK, s.session.Snapshot(panel))
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	var req pageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.metrics.CountAction(string(panel), "jump")
	s.session.JumpPage(panel, req.Page)
	writeJSON(w, http.StatusOK, s.session.Snapshot(panel))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	s.metrics.CountAction(string(panel), "refresh")
	s.session.Refresh(panel)
	s.background(r, panel)
	writeJSON(w, http.StatusAccepted, s.session.Snapshot(panel))
}

type filterValue struct {
	Value string `json:"value"`
}

type filterValues struct {
	Values []string `json:"values"`
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	var req filterValues
	if !decodeBody(w, r, &req) {
		return
	}
	s.metrics.CountAction(string(panel), "set_filters")
	s.session.SetFilters(panel, req.Values)
	s.background(r, panel)
	writeJSON(w, http.StatusAccepted, s.session.Snapshot(panel))
}

func (s *Server) handleAddFilter(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	var req filterValue
	if !decodeBody(w, r, &req) {
		return
	}
	s.metrics.CountAction(string(panel), "add_filter")
	s.session.AddFilter(panel, req.Value)
	s.background(r, panel)
	writeJSON(w, http.StatusAccepted, s.session.Snapshot(panel))
}

func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	panel, ok := s.paginatedPanel(w, r)
	if !ok {
		return
	}
	var req filterValue
	if !decodeBody(w, r, &req) {
		return
	}
	s.metrics.CountAction(string(panel), "remove_filter")
	s.session.RemoveFilter(panel, req.Value)
	s.background(r, panel)
	writeJSON(w, http.StatusAccepted, s.session.Snapshot(panel))
}

type rangeRequest struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func (s *Server) handleSetRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.End != 0 && req.Start > req.End {
		writeError(w, "start must not exceed end", http.StatusBadRequest)
		return
	}
	s.session.SetTimeRange(req.Start, req.End)
	writeJSON(w, http.StatusOK, s.session.Prefs())
}

type prefsRequest struct {
	Timezone     string `json:"timezone"`
	DateFormat   string `json:"dateFormat"`
	Milliseconds bool   `json:"milliseconds"`
	ExportEmail  string `json:"exportEmail"`
	WalletsMts   int64  `json:"walletsMts"`
}

func (s *Server) handleSetPrefs(w http.ResponseWriter, r *http.Request) {
	var req prefsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.session.SetFormatting(req.Timezone, req.DateFormat, req.Milliseconds)
	s.session.SetExportEmail(req.ExportEmail)
	if req.WalletsMts != 0 {
		s.session.SetWalletsMts(req.WalletsMts)
	}
	writeJSON(w, http.StatusOK, s.session.Prefs())
}

type exportRequest struct {
	Panels []report.PanelType `json:"panels"`
}

// handleExport compiles one export request covering every named panel and
// submits it as a single call; progress comes back through status events.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Panels) == 0 {
		writeError(w, "no panels selected", http.StatusBadRequest)
		return
	}
	for _, p := range req.Panels {
		if !report.Known(p) {
			writeError(w, "unknown panel "+string(p), http.StatusBadRequest)
			return
		}
	}

	ctx := context.WithoutCancel(r.Context())
	go s.exporter.Export(ctx, s.auth, req.Panels, s.session)

	writeJSON(w, http.StatusAccepted, map[string]int{"panels": len(req.Panels)})
}

func (s *Server) handleExportEmail(w http.ResponseWriter, r *http.Request) {
	email := s.exporter.PrepareEmail(r.Context(), s.auth, s.session.Prefs().ExportEmail)
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"coins": s.catalog.Coins(),
		"pairs": s.catalog.Pairs(),
	})
}

func (s *Server) handleSymbolsRefresh(w http.ResponseWriter, r *http.Request) {
	s.catalog.Refresh(context.WithoutCancel(r.Context()))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// background runs a page fetch detached from the request: the response goes
// out with the loading snapshot while the batch is still in flight.
func (s *Server) background(r *http.Request, panel report.PanelType) {
	ctx := context.WithoutCancel(r.Context())
	go s.fetcher.FetchPage(ctx, panel)
}
