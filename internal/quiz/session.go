package quiz

// UpdateSession merges the partial update into the player's session record
// and stamps it active now. Sessions are created on first update.
func (r *Room) UpdateSession(playerID string, upd SessionUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.PlayerSessions[playerID]
	if sess == nil {
		sess = &SessionState{Status: SessionPlaying}
		r.PlayerSessions[playerID] = sess
	}
	if upd.Status != nil {
		sess.Status = *upd.Status
	}
	if upd.InPlayRoute != nil {
		sess.InPlayRoute = *upd.InPlayRoute
	}
	sess.LastActive = r.now()
}

// IsSessionActive reports whether the player is mid-game-UI and inside the
// reconnection window. Deliberately narrower than "socket connected": a live
// transport on a menu screen does not qualify for silent rejoin.
func (r *Room) IsSessionActive(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := r.PlayerSessions[playerID]
	if sess == nil {
		return false
	}
	return sess.Status == SessionPlaying &&
		sess.InPlayRoute &&
		r.now().Sub(sess.LastActive) < ReconnectionWindow
}

// CleanExpiredSessions garbage-collects disconnected sessions past the
// reconnection window.
func (r *Room) CleanExpiredSessions() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, sess := range r.PlayerSessions {
		if sess.Status == SessionDisconnected && now.Sub(sess.LastActive) >= ReconnectionWindow {
			delete(r.PlayerSessions, id)
		}
	}
}
