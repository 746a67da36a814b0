package room

import (
	"github.com/ugaemi/safezone-server/internal/ws"
	"github.com/ugaemi/safezone-server/internal/zone"
)

// queueZoneEvent translates a scheduler event into a client message. Runs
// inside Match.Advance, so r.mu is held.
func (r *Room) queueZoneEvent(e zone.Event) {
	switch ev := e.(type) {
	case zone.ZoneSpawned:
		z := ev.Zone
		r.queue(ws.TypeZoneSpawned, ws.ZoneSpawnedMessage{
			Zone:      z,
			Rings:     ev.Rings,
			Threshold: zone.Threshold(&z),
		})
	case zone.ZoneRelocated:
		r.queue(ws.TypeZoneRelocated, ws.ZoneRelocatedMessage{
			From:       ev.From,
			To:         ev.To,
			DurationMS: ev.Duration.Milliseconds(),
		})
	case zone.CountdownTicked:
		r.queue(ws.TypeCountdown, ws.CountdownMessage{Remaining: ev.Remaining})
	case zone.ParticipantsOutside:
		r.queue(ws.TypeZoneWarning, ws.ZoneWarningMessage{
			PlayerIDs: ev.IDs,
			Threshold: ev.Threshold,
		})
	case zone.ParticipantEliminated:
		lives := 0
		if p, ok := r.Players[ev.ID]; ok {
			lives = p.Lives
		}
		r.queue(ws.TypePlayerEliminated, ws.PlayerEliminatedMessage{
			PlayerID: ev.ID,
			Distance: ev.Distance,
			Lives:    lives,
		})
	case zone.ZoneExpiring:
		r.queue(ws.TypeZoneExpiring, ws.ZoneExpiringMessage{
			Center:     ev.Zone.Center,
			Radius:     ev.Zone.CurrentRadius,
			DurationMS: ev.Duration.Milliseconds(),
		})
	case zone.ZoneRemoved:
		r.queue(ws.TypeZoneRemoved, ws.ZoneRemovedMessage{
			NextSpawnInMS: ev.NextSpawnIn.Milliseconds(),
		})
	}
}
