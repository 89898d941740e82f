package ws

import (
	"github.com/antonmedv/expr"
	"github.com/tcriess/lightspeed-board/filter"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/types"
)

// RunFilterEnvelope decides whether an envelope is delivered to one
// particular client. An empty target filter means broadcast to everyone.
func (h *Hub) RunFilterEnvelope(envelope *types.Envelope, sender, target *Client) bool {
	if envelope.TargetFilter == "" {
		return true
	}
	prog, err := expr.Compile(envelope.TargetFilter, expr.Env(filter.Env{}))
	if err != nil {
		globals.AppLogger.Warn("could not compile target filter", "error", err)
		return false
	}
	env := filter.Env{
		RoomId: h.RoomId,
		Key:    envelope.Key,
		Target: filter.Target{
			ConnectionId: target.Id,
			Profile:      profileEnv(target.Profile()),
		},
	}
	if sender != nil {
		env.Source = filter.Source{
			ConnectionId: sender.Id,
			Profile:      profileEnv(sender.Profile()),
		}
	}
	res, err := expr.Run(prog, env)
	if err != nil {
		globals.AppLogger.Warn("could not run target filter", "error", err)
		return false
	}
	if bRes, ok := res.(bool); ok && bRes {
		return true
	}
	return false
}

func profileEnv(profile types.UserProfile) filter.Profile {
	return filter.Profile{
		Name:        profile.Name,
		Avatar:      profile.Avatar,
		CurrentRoom: profile.CurrentRoom,
		Email:       profile.Email,
	}
}
