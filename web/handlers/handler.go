package handlers

import (
	"biotrack.com.au/biotrack/connector"
	"biotrack.com.au/biotrack/core"
)

// Handler exposes connector runtime state and attendance lookups over the
// admin API.
type Handler struct {
	Identity *connector.IdentityMap
	Gateway  core.Gateway
	Sessions []*connector.Session
}

func New(identity *connector.IdentityMap, gateway core.Gateway, sessions []*connector.Session) *Handler {
	return &Handler{
		Identity: identity,
		Gateway:  gateway,
		Sessions: sessions,
	}
}
