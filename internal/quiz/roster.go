package quiz

// UpsertPlayer adds a player or refreshes an existing record by id. First
// insertion seeds the player's game state from their purchased extras; later
// calls merge transport/profile fields without touching game state.
func (r *Room) UpsertPlayer(p Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findPlayer(p.ID); existing != nil {
		if p.Name != "" {
			existing.Name = p.Name
		}
		if p.SocketID != "" {
			existing.SocketID = p.SocketID
		}
		return
	}

	cp := p
	r.Players = append(r.Players, &cp)
	r.PlayerData[p.ID] = newPlayerState(p.PurchasedExtras)
}

// AddAdmin is idempotent by id. Re-adding an existing admin rebinds its
// socket instead of creating a duplicate record.
func (r *Room) AddAdmin(a Admin) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findAdmin(a.ID); existing != nil {
		if a.SocketID != "" {
			existing.SocketID = a.SocketID
			existing.disconnectedSocketID = ""
		}
		return
	}
	cp := a
	r.Admins = append(r.Admins, &cp)
}

func (r *Room) RebindPlayerSocket(playerID, socketID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findPlayer(playerID)
	if p == nil {
		return false
	}
	p.SocketID = socketID
	return true
}

// RebindAdminSocket also clears any pending grace-period removal, which is
// how a reconnect cancels the sweep.
func (r *Room) RebindAdminSocket(adminID, socketID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.findAdmin(adminID)
	if a == nil {
		return false
	}
	a.SocketID = socketID
	a.disconnectedSocketID = ""
	return true
}

func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findPlayer(playerID) != nil
}

// PlayerSocket resolves the bound socket id for a player, empty when the
// player is unknown or has no live binding.
func (r *Room) PlayerSocket(playerID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findPlayer(playerID); p != nil {
		return p.SocketID
	}
	return ""
}

// MarkAdminDisconnected starts the removal grace period for the admin bound
// to socketID. The admin is only removed by the sweeper if no other socket
// rebinds the record before the grace elapses.
func (r *Room) MarkAdminDisconnected(socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.Admins {
		if a.SocketID == socketID {
			a.disconnectedSocketID = socketID
			a.removeAfter = r.now().Add(AdminRemovalGrace)
		}
	}
}

// RemoveStaleAdmins drops admins whose disconnect grace elapsed with the
// socket never rebound. Returns the removed ids.
func (r *Room) RemoveStaleAdmins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed []string
	kept := r.Admins[:0]
	for _, a := range r.Admins {
		if a.disconnectedSocketID != "" && a.SocketID == a.disconnectedSocketID && now.After(a.removeAfter) {
			removed = append(removed, a.ID)
			continue
		}
		kept = append(kept, a)
	}
	r.Admins = kept
	return removed
}

// MarkCompleted stamps the room as finished and moves it to its terminal
// phase.
func (r *Room) MarkCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.CompletedAt = &now
	r.Phase = PhaseLaunched
}
