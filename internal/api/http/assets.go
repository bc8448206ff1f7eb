package http

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/storage"
)

var audioExts = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
}

// POST /passages/{passageID}/audio  multipart "file"
// The returned url points at the /assets route under publicURL.
func UploadAudioHandler(store passage.Store, bs storage.BlobStore, maxSize int64, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "passageID")
		p, err := store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if p.Kind != passage.KindListening {
			writeErr(w, r, passage.ErrNotListening)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext := strings.ToLower(filepath.Ext(hdr.Filename))
		if _, ok := audioExts[ext]; !ok {
			http.Error(w, "unsupported audio type", http.StatusBadRequest)
			return
		}

		key, err := bs.Put("passages/"+id+"/audio"+ext, f)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if err := store.SetAudio(r.Context(), id, key); err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": assetURL(publicURL, key)})
	}
}

// assetURL is relative to the API root when publicURL is empty.
func assetURL(publicURL, key string) string {
	return strings.TrimRight(publicURL, "/") + "/assets/" + strings.TrimLeft(key, "/")
}

// MountAssets serves stored blobs: GET /assets/*
func MountAssets(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct, ok := audioExts[strings.ToLower(filepath.Ext(key))]
		if !ok {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
