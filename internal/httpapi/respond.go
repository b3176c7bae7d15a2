package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"servicosauto.com.br/internal/marketplace"
	"servicosauto.com.br/internal/media"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// entityWithImages mirrors the read shape of entity resources: the entity's
// own fields plus its attached images.
type entityWithImages struct {
	Entity any                  `json:"-"`
	Images []*marketplace.Image `json:"images"`
}

func (e entityWithImages) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(e.Entity)
	if err != nil {
		return nil, err
	}
	images := e.Images
	if images == nil {
		images = []*marketplace.Image{}
	}
	extra, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	if len(base) < 2 || base[0] != '{' {
		return base, nil
	}
	out := make([]byte, 0, len(base)+len(extra)+12)
	out = append(out, base[:len(base)-1]...)
	if len(base) > 2 {
		out = append(out, ',')
	}
	out = append(out, `"images":`...)
	out = append(out, extra...)
	out = append(out, '}')
	return out, nil
}

func withImages(entity any, images []*marketplace.Image) entityWithImages {
	return entityWithImages{Entity: entity, Images: images}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, marketplace.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, marketplace.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, marketplace.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, media.ErrCredentialUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "media service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
