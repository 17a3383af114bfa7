package monitor

// DetectTransition classifies the transition between the last persisted
// snapshot and the current one. At most one event is reported, in fixed
// priority order (first match wins).
//
// prev is the last snapshot that was actually written to history, not
// the last collected one. Comparing against the persisted state keeps a
// transient blip between two saves from producing an event storm.
func DetectTransition(prev, cur *Snapshot) (Reason, bool) {
	if prev == nil || cur == nil {
		return "", false
	}

	switch {
	case prev.Connected && !cur.Connected:
		return ReasonDisconnected, true
	case !prev.Connected && cur.Connected:
		return ReasonReconnected, true
	case prev.PacketLossPercent == 0 && cur.PacketLossPercent > 0:
		return ReasonPacketLossStart, true
	case prev.PacketLossPercent > 0 && cur.PacketLossPercent == 0:
		return ReasonPacketLossEnd, true
	case prev.HasPing() && !cur.HasPing():
		return ReasonPingTimeout, true
	case !prev.HasPing() && cur.HasPing():
		return ReasonPingRecovered, true
	case cur.PacketLossPercent >= 5:
		return ReasonHighPacketLoss, true
	case prev.HasPing() && cur.HasPing() && *prev.PingMs <= 100 && *cur.PingMs > 100:
		return ReasonPingSpike, true
	}
	return "", false
}
