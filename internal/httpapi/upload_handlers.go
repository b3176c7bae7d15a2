package httpapi

import (
	"net/http"
	"strings"
	"time"

	"servicosauto.com.br/internal/marketplace"
)

const maxUploadBytes = 10 << 20

// uploadImage reads the multipart "file" part, requires an image MIME type,
// acquires a live media credential, pushes the bytes to the image host, and
// records the result against the given owner. A credential failure is
// isolated to this request.
func (a *API) uploadImage(w http.ResponseWriter, r *http.Request, owner marketplace.Image) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "multipart form with a file part is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		writeError(w, r, http.StatusBadRequest, "file must be an image")
		return
	}

	token, err := a.creds.EnsureValid(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	uploaded, err := a.media.UploadImage(r.Context(), token, header.Filename, file)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "image upload failed")
		return
	}

	img := owner
	img.URL = uploaded.Link
	img.RemoteID = uploaded.ID
	img.DeleteHash = uploaded.DeleteHash
	img.MIMEType = mimeType
	img.UploadedAt = time.Now().UTC()
	if err := a.images.Create(r.Context(), &img); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a.audit(r.Context(), "image.uploaded", "image", img.ID, map[string]any{
		"url":  img.URL,
		"mime": img.MIMEType,
	})
	writeJSON(w, http.StatusCreated, img)
}
