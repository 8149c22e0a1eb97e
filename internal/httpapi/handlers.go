package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/DoyleJ11/cheat-yahtzee-backend/internal/match"
)

const qrSize = 256

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// State reports the live match through the actor, like any other reader.
func State(m *match.Match) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan match.View, 1)
		if !m.Send(r.Context(), match.GetState{Reply: reply}) {
			http.Error(w, "match unavailable", http.StatusServiceUnavailable)
			return
		}

		var v match.View
		select {
		case v = <-reply:
		case <-r.Context().Done():
			return
		case <-time.After(2 * time.Second):
			http.Error(w, "match unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func JoinQR(publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if publicURL == "" {
			http.Error(w, "no public url configured", http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(publicURL, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "failed to encode qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(png)
	}
}
