package auth

import (
	"context"
	"log/slog"

	"floorlink/contract"
	"floorlink/domain"
)

// Capabilities gating the pairing core's entry points.
const (
	CapabilityChatSearch  = "chat.search"
	CapabilityChatMessage = "chat.message"
)

// roleCapabilities maps directory roles to granted capabilities. Everyone on
// the floor may talk inside an established session; opening a search is
// reserved to roles that own or dispatch work items.
var roleCapabilities = map[string][]string{
	"admin":      {CapabilityChatSearch, CapabilityChatMessage},
	"dispatcher": {CapabilityChatSearch, CapabilityChatMessage},
	"foreman":    {CapabilityChatSearch, CapabilityChatMessage},
	"operator":   {CapabilityChatMessage},
}

// CapabilityGate implements contract.Authorizer over the directory's role
// sets. Unknown participants and unknown roles grant nothing.
type CapabilityGate struct {
	log       *slog.Logger
	directory contract.Directory
}

func NewCapabilityGate(log *slog.Logger, directory contract.Directory) *CapabilityGate {
	return &CapabilityGate{log: log, directory: directory}
}

func (g *CapabilityGate) HasPermission(ctx context.Context, id domain.ParticipantID, capability string) bool {
	roles, err := g.directory.GetRoles(ctx, id)
	if err != nil {
		g.log.Debug("role lookup failed, denying", "participant", id, "error", err)
		return false
	}
	for _, role := range roles {
		for _, granted := range roleCapabilities[role] {
			if granted == capability {
				return true
			}
		}
	}
	return false
}
