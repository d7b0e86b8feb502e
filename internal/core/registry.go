package core

import "sync"

// Registry owns every registered client plus two reverse indices:
// channel -> client ids and user -> client ids.
//
// All mutations take the write lock, so both sides of the
// client/channel relation always change together. Lookups return
// freshly allocated slices that stay valid while the registry changes.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	channels index
	users    index
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[string]*Client),
		channels: make(index),
		users:    make(index),
	}
}

// Register inserts the client. Registering the same id twice is a caller error.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID] = c
	r.users.add(c.UserID, c.ID)
}

// Unregister removes the client from every index. Unknown ids are ignored.
// Reports whether a client was removed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return false
	}
	for ch := range c.channels {
		r.channels.remove(ch, id)
	}
	c.channels = make(map[string]struct{})
	r.users.remove(c.UserID, id)
	delete(r.clients, id)
	return true
}

// JoinChannel subscribes a registered client to a channel. Idempotent.
func (r *Registry) JoinChannel(id, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return
	}
	c.channels[channelID] = struct{}{}
	r.channels.add(channelID, id)
}

// LeaveChannel unsubscribes a registered client from a channel. Idempotent.
func (r *Registry) LeaveChannel(id, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return
	}
	delete(c.channels, channelID)
	r.channels.remove(channelID, id)
}

// Client returns the client with the given id, or nil.
func (r *Registry) Client(id string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[id]
}

// ClientsByChannel returns the current members of a channel.
func (r *Registry) ClientsByChannel(channelID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.channels[channelID]
	result := make([]*Client, 0, len(ids))
	for id := range ids {
		if c, ok := r.clients[id]; ok {
			result = append(result, c)
		}
	}
	return result
}

// ClientsByUserIDs returns every connection owned by the listed users.
// Each client id lives in exactly one user entry, so repeated user ids
// are skipped rather than producing duplicate clients.
func (r *Registry) ClientsByUserIDs(userIDs []string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(userIDs))
	var result []*Client
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		for id := range r.users[userID] {
			if c, ok := r.clients[id]; ok {
				result = append(result, c)
			}
		}
	}
	return result
}

// AllClients returns every registered client.
func (r *Registry) AllClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		result = append(result, c)
	}
	return result
}

// ChannelsOf returns the channels a client has joined, or nil if unknown.
func (r *Registry) ChannelsOf(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return nil
	}
	result := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		result = append(result, ch)
	}
	return result
}

// IsMember reports whether the client is in the channel's membership set.
func (r *Registry) IsMember(id, channelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[channelID][id]
	return ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// ChannelCount returns the number of channels with at least one member.
func (r *Registry) ChannelCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// UserCount returns the number of users with at least one connection.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
