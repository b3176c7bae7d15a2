package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"servicosauto.com.br/internal/marketplace"
)

func (a *API) handleListingsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listListings(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

// handleListingResource dispatches the anuncio subtree. POST to /{id} creates
// a listing for that provider id; POST to /{id}/upload-image attaches an
// image to an existing listing.
func (a *API) handleListingResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/anuncios/")
	if path == "" {
		a.handleListingsCollection(w, r)
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
		a.uploadListingImage(w, r, id)
		return
	}

	id, err := parseID(path)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getListing(w, r, id)
	case http.MethodPost:
		a.createListing(w, r, id)
	case http.MethodPatch:
		a.updateListing(w, r, id)
	case http.MethodDelete:
		a.deleteListing(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createListing(w http.ResponseWriter, r *http.Request, providerID int64) {
	var req marketplace.NewListing
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	l, err := a.listings.Create(r.Context(), providerID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "anuncio.created", "anuncio", strconv.FormatInt(l.ID, 10), map[string]any{
		"prestador_id": providerID,
	})
	writeJSON(w, http.StatusCreated, l)
}

func (a *API) getListing(w http.ResponseWriter, r *http.Request, id int64) {
	l, err := a.listings.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	images, err := a.images.ListByOwner(r.Context(), marketplace.Image{ListingID: &id})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withImages(l, images))
}

func (a *API) listListings(w http.ResponseWriter, r *http.Request) {
	listings, err := a.listings.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if listings == nil {
		listings = []*marketplace.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

func (a *API) updateListing(w http.ResponseWriter, r *http.Request, id int64) {
	var req marketplace.ListingUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	l, err := a.listings.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *API) deleteListing(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.listings.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.audit(r.Context(), "anuncio.deleted", "anuncio", strconv.FormatInt(id, 10), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) uploadListingImage(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := a.listings.Get(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	a.uploadImage(w, r, marketplace.Image{ListingID: &id})
}
