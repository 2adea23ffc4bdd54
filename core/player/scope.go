package player

import "WaveFM/model"

// recencyScopes lists the pages whose song selections are written to the
// recent-play log. The favorites and playlist pages do not record plays.
var recencyScopes = map[model.Scope]bool{
	model.ScopeHome:      true,
	model.ScopeUpload:    true,
	model.ScopeRecent:    true,
	model.ScopeFavorites: false,
	model.ScopePlaylist:  false,
}

// TracksRecency reports whether sessions of this scope record plays.
func TracksRecency(scope model.Scope) bool {
	return recencyScopes[scope]
}
