package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"servicosauto.com.br/internal/marketplace"
)

func (a *API) handleProvidersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProviders(w, r)
	case http.MethodPost:
		a.createProvider(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProviderResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/prestadores/")
	if path == "" {
		a.handleProvidersCollection(w, r)
		return
	}

	if rest, ok := strings.CutSuffix(path, "/upload-image"); ok {
		id, err := parseID(strings.TrimSuffix(rest, "/"))
		if err != nil {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.uploadProviderImage(w, r, id)
		return
	}

	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getProvider(w, r, id)
	case http.MethodPatch:
		a.updateProvider(w, r, id)
	case http.MethodDelete:
		a.deleteProvider(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createProvider(w http.ResponseWriter, r *http.Request) {
	var req marketplace.NewProvider
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.providers.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "prestador.created", "prestador", strconv.FormatInt(p.ID, 10), nil)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) getProvider(w http.ResponseWriter, r *http.Request, id int64) {
	p, err := a.providers.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	images, err := a.images.ListByOwner(r.Context(), marketplace.Image{ProviderID: &id})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withImages(p, images))
}

func (a *API) listProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := a.providers.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if providers == nil {
		providers = []*marketplace.Provider{}
	}
	writeJSON(w, http.StatusOK, providers)
}

func (a *API) updateProvider(w http.ResponseWriter, r *http.Request, id int64) {
	var req marketplace.ProviderUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.providers.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deleteProvider(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.providers.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "prestador.deleted", "prestador", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) uploadProviderImage(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := a.providers.Get(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.uploadImage(w, r, marketplace.Image{ProviderID: &id})
}
