package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
	"github.com/utafrali/catalog-admin/pkg/httputil"
)

const maxJSONBody = 1 << 20

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when optional is set. On failure a 400 is written and false returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
	})
	return false
}

// pathParam returns the unescaped URL parameter name. A missing value
// writes a 400 and returns false.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	if v == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: name + " is required"},
		})
		return "", false
	}
	return v, true
}

// writePartial writes data alongside an error. Used when an edit was
// partly applied: the client gets the new state and the rejected fields.
func writePartial(w http.ResponseWriter, r *http.Request, data any, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		httputil.WriteError(w, r, err, nil)
		return
	}
	httputil.WriteJSON(w, appErr.Status, httputil.Response{
		Data: data,
		Error: &httputil.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
	})
}
