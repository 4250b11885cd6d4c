package controllers

import (
	"net/http"

	"github.com/weglobalmusic/wgme-backend/api/middleware"
	"github.com/weglobalmusic/wgme-backend/api/responses"
)

func scopedPing(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": scope, "status": "ok"}
		if res, ok := middleware.ResolutionFromContext(r.Context()); ok && res.Role != nil {
			payload["role"] = res.Role.String()
		}
		responses.WriteSuccess(w, payload)
	}
}

func ProducerPing() http.HandlerFunc { return scopedPing("producer") }

func AdminPing() http.HandlerFunc { return scopedPing("admin") }
