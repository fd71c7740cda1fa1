package core

// CleanupHook receives owner-destroyed notifications from the host's object
// lifecycle and stops the owner's tasks.
type CleanupHook struct {
	registry *Registry
}

// NewCleanupHook creates a hook that forwards to registry.
func NewCleanupHook(registry *Registry) *CleanupHook {
	return &CleanupHook{registry: registry}
}

// NotifyOwnerDestroyed stops every live task attached to owner. Calling it
// again for the same owner, or for an owner without tasks, does nothing.
func (c *CleanupHook) NotifyOwnerDestroyed(owner Owner) {
	c.registry.StopAllForOwner(owner)
}
