package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.Catalogs != nil {
		if c := a.Catalogs.Current(); c != nil {
			body["persona_version"] = c.Persona.Version
			body["catalog_loaded_at"] = c.LoadedAt.Format(time.RFC3339)
		}
	}
	a.json(w, http.StatusOK, body)
}
