package monitor

// qualityScore derives the 0-100 composite score and its status label.
//
// The score starts at 100 and only ever subtracts. Each metric applies
// at most one penalty tier; an absent metric contributes zero penalty
// rather than being treated as worst-case.
func qualityScore(s *Snapshot) (int, string) {
	score := 100

	if s.PingMs != nil {
		switch ping := *s.PingMs; {
		case ping > 150:
			score -= 40
		case ping > 100:
			score -= 25
		case ping > 50:
			score -= 10
		case ping > 30:
			score -= 5
		}
	}

	// Jitter hurts interactive traffic more than raw latency does.
	if s.JitterMs != nil {
		switch jitter := *s.JitterMs; {
		case jitter > 50:
			score -= 40
		case jitter > 30:
			score -= 30
		case jitter > 15:
			score -= 20
		case jitter > 5:
			score -= 10
		}
	}

	switch loss := s.PacketLossPercent; {
	case loss > 10:
		score -= 50
	case loss > 5:
		score -= 35
	case loss > 2:
		score -= 25
	case loss > 0:
		score -= 15
	}

	if s.SignalDbm != nil {
		switch dbm := *s.SignalDbm; {
		case dbm < -80:
			score -= 25
		case dbm < -70:
			score -= 15
		case dbm < -60:
			score -= 5
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, statusLabel(score)
}

func statusLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 25:
		return "Poor"
	default:
		return "Critical"
	}
}
