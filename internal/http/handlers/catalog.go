package handlers

import (
	"net/http"
	"time"
)

// ReloadCatalog re-reads persona and bank files. A failed reload leaves the
// active catalog untouched.
func (a *App) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := a.Catalogs.Reload()
	if err != nil {
		a.log(r).Warn().Err(err).Msg("catalog reload rejected")
		a.error(w, http.StatusUnprocessableEntity, "catalog_invalid", err.Error())
		return
	}
	a.log(r).Info().Str("persona_version", c.Persona.Version).Msg("catalog reloaded")
	a.json(w, http.StatusOK, map[string]any{
		"persona_version": c.Persona.Version,
		"settings":        len(c.Bank.Settings),
		"loaded_at":       c.LoadedAt.Format(time.RFC3339),
	})
}

// Persona returns the active persona lock.
func (a *App) Persona(w http.ResponseWriter, r *http.Request) {
	c := a.Catalogs.Current()
	if c == nil {
		a.error(w, http.StatusServiceUnavailable, "catalog_unavailable", "no catalog loaded")
		return
	}
	a.json(w, http.StatusOK, c.Persona)
}
