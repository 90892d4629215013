// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

package web

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/iliafrenkel/go-pastes/src/metrics"
	"github.com/iliafrenkel/go-pastes/src/service"
	"github.com/iliafrenkel/go-pastes/src/web/page"
)

// show renders a page with the common data plus the provided data. Failures
// are logged, there is nothing else we can do at this point.
func (h *Server) show(w http.ResponseWriter, status int, tpl string, data ...page.Data) {
	common := []page.Data{
		page.Template(tpl),
		page.Brand(h.options.BrandName),
		page.Tagline(h.options.BrandTagline),
		page.Version(h.options.Version),
		page.Total(h.service.Count()),
	}
	p := page.New(h.templates, append(common, data...)...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.Show(w); err != nil {
		h.log.Logf("ERROR %s: %v", tpl, err)
	}
}

func (h *Server) showError(w http.ResponseWriter, code int, msg string) {
	h.show(w, code, "error.html",
		page.Title("Error"),
		page.ErrorCode(code),
		page.ErrorText(http.StatusText(code)),
		page.ErrorMessage(msg),
	)
}

func (h *Server) showInternalError(w http.ResponseWriter, op string, err error) {
	h.log.Logf("ERROR %s: %v", op, err)
	if errors.Is(err, service.ErrStoreFailure) {
		metrics.StoreFailures.WithLabelValues(op).Inc()
	}
	h.showError(w, http.StatusInternalServerError, "")
}

// handleGetHomePage shows all the pastes, newest first, in response to a
// GET / request.
func (h *Server) handleGetHomePage(w http.ResponseWriter, r *http.Request) {
	pastes := h.service.Pastes()
	// Timestamps share one layout, so string order is time order.
	sort.SliceStable(pastes, func(i, j int) bool {
		return pastes[i].CreatedAt > pastes[j].CreatedAt
	})

	h.show(w, http.StatusOK, "index.html", page.Title("Home"), page.Pastes(pastes))
}

// handleGetCreatePage shows an empty new paste form.
func (h *Server) handleGetCreatePage(w http.ResponseWriter, r *http.Request) {
	h.show(w, http.StatusOK, "create.html", page.Title("New paste"))
}

// handlePostPaste creates new paste from the form data and redirects to it.
func (h *Server) handlePostPaste(w http.ResponseWriter, r *http.Request) {
	// Read the form data
	r.Body = http.MaxBytesReader(w, r.Body, h.options.MaxBodySize)
	if err := r.ParseForm(); err != nil {
		h.log.Logf("WARN parsing form failed: %v", err)
		h.showError(w, http.StatusBadRequest, "")
		return
	}

	req := service.PasteRequest{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Author:  r.PostFormValue("author"),
	}
	paste, err := h.service.NewPaste(req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) {
			h.show(w, http.StatusBadRequest, "create.html",
				page.Title("New paste"),
				page.Form(req),
				page.ErrorMessage("Content must not be empty!"),
			)
			return
		}
		// Some bad thing happened and we don't know what to do
		h.showInternalError(w, "create", err)
		return
	}
	metrics.PastesCreated.Inc()

	http.Redirect(w, r, "/paste/"+url.PathEscape(paste.ID), http.StatusFound)
}

// handleGetPastePage generates a page to view a single paste.
func (h *Server) handleGetPastePage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	paste, err := h.service.GetPaste(id)
	if err != nil {
		if errors.Is(err, service.ErrPasteNotFound) {
			h.showError(w, http.StatusNotFound, "There is no such paste")
			return
		}
		h.showInternalError(w, "view", err)
		return
	}

	h.show(w, http.StatusOK, "view.html", page.Title(paste.Title), page.Paste(paste))
}

// handleDeletePaste deletes a paste and redirects to the home page. Unknown
// ids are ignored.
func (h *Server) handleDeletePaste(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.DeletePaste(id); err != nil {
		h.showInternalError(w, "delete", err)
		return
	}
	metrics.PastesDeleted.Inc()

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleSearch shows pastes matching the q query parameter. An empty query
// shows no results.
func (h *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.FormValue("q"))
	results := h.service.Search(query)
	if query != "" {
		metrics.Searches.Inc()
	}

	h.show(w, http.StatusOK, "search.html",
		page.Title("Search"),
		page.Query(query),
		page.Pastes(results),
	)
}

// Show 404 Not Found error page
func (h *Server) notFound(w http.ResponseWriter, r *http.Request) {
	h.showError(w, http.StatusNotFound, "Unfortunately the page you are looking for is not there 🙁")
}

func (h *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.showError(w, http.StatusMethodNotAllowed, "")
}
