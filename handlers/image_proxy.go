package handlers

import (
	"log"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"

	"opname/services"
)

// HandleImageProxy fetches an image server-side and streams it back with
// its content type, so report photos can be loaded without CORS issues.
func HandleImageProxy(proxy services.PhotoProxy) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		raw := e.Request.URL.Query().Get("url")
		if raw == "" {
			return e.String(http.StatusBadRequest, "URL gambar diperlukan.")
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return e.String(http.StatusBadRequest, "URL gambar tidak valid.")
		}

		data, contentType, err := proxy.FetchImageBytes(e.Request.Context(), raw)
		if err != nil {
			log.Printf("image_proxy: %s: %v", u.Host, err)
			return e.String(http.StatusBadGateway, "Gagal memuat gambar.")
		}

		e.Response.Header().Set("Cache-Control", "private, max-age=3600")
		return e.Blob(http.StatusOK, contentType, data)
	}
}
