package handler

import (
	"net/http"

	"github.com/veladigital/libro-api/internal/domain"

	"github.com/go-chi/chi/v5"
)

// ============================================================
// Themes — /v1/themes
// ============================================================

func listThemesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Themes)
	}
}

func getThemeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		themeID := chi.URLParam(r, "themeId")
		theme, ok := domain.ThemeByID(themeID)
		if !ok {
			writeError(w, http.StatusNotFound, "theme not found: "+themeID)
			return
		}
		writeJSON(w, http.StatusOK, theme)
	}
}
