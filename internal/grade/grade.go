// Package grade turns a window of persisted history records into a
// single letter grade for long-term connection quality. It weighs
// packet loss heaviest because sustained loss hurts interactive
// traffic more than a slow but steady link.
package grade

import (
	"math"

	"github.com/montanaflynn/stats"

	"wifimon/internal/history"
	"wifimon/internal/monitor"
)

// Weights of the four sub-scores in the composite.
const (
	weightLoss       = 0.40
	weightPing       = 0.25
	weightConnection = 0.20
	weightJitter     = 0.15
)

// Breakdown exposes the four sub-scores so a report can show what
// dragged the grade down.
type Breakdown struct {
	PacketLoss int `json:"packet_loss"`
	Ping       int `json:"ping"`
	Connection int `json:"connection"`
	Jitter     int `json:"jitter"`
}

// Result is the outcome of scoring one history window.
type Result struct {
	Score       int       `json:"score"`
	Grade       string    `json:"grade"`
	Label       string    `json:"label"`
	Breakdown   Breakdown `json:"breakdown"`
	WindowHours float64   `json:"window_hours"`
	RecordCount int       `json:"record_count"`
}

// RecordSource is the slice of the history store the scorer needs.
type RecordSource interface {
	Records(period history.Period) []history.Record
}

// Scorer grades long-term connection quality from persisted records,
// independent of the live sampling loop.
type Scorer struct {
	source RecordSource
}

func NewScorer(source RecordSource) *Scorer {
	return &Scorer{source: source}
}

// Score grades the records within the given period. An empty window
// yields score 0 and grade "N/A" rather than an error.
func (s *Scorer) Score(period history.Period) Result {
	return scoreRecords(s.source.Records(period))
}

func scoreRecords(recs []history.Record) Result {
	if len(recs) == 0 {
		return Result{Grade: "N/A", Label: "No data"}
	}

	hours := windowHours(recs)

	loss := lossScore(recs, hours)
	ping := pingScore(recs)
	conn := connectionScore(recs, hours)
	jitter := jitterScore(recs)

	composite := int(math.Round(
		weightLoss*float64(loss) +
			weightPing*float64(ping) +
			weightConnection*float64(conn) +
			weightJitter*float64(jitter)))

	letter, label := gradeFor(composite)
	return Result{
		Score:       composite,
		Grade:       letter,
		Label:       label,
		Breakdown:   Breakdown{PacketLoss: loss, Ping: ping, Connection: conn, Jitter: jitter},
		WindowHours: hours,
		RecordCount: len(recs),
	}
}

// windowHours measures the span between the first and last record,
// floored at one hour so per-24h rates stay sane with sparse data.
func windowHours(recs []history.Record) float64 {
	span := recs[len(recs)-1].Timestamp.Sub(recs[0].Timestamp).Hours()
	if span < 1 {
		return 1
	}
	return span
}

// lossScore bands the rate of loss events per 24h, then caps the
// result downward when the mean loss percentage over the window is
// itself bad. Caps only ever lower the score.
func lossScore(recs []history.Record, hours float64) int {
	events := 0
	lossValues := make([]float64, 0, len(recs))
	for _, r := range recs {
		if r.Reason == monitor.ReasonPacketLossStart || r.Reason == monitor.ReasonHighPacketLoss {
			events++
		}
		lossValues = append(lossValues, r.PacketLossPercent)
	}

	rate := float64(events) / hours * 24

	var score float64
	switch {
	case events == 0:
		score = 100
	case rate <= 1:
		score = 90
	case rate <= 3:
		score = 75
	case rate <= 5:
		score = 60
	case rate <= 10:
		score = 40
	default:
		score = math.Max(0, 20-rate)
	}

	meanLoss, _ := stats.Mean(lossValues)
	switch {
	case meanLoss > 5:
		score = math.Min(score, 30)
	case meanLoss > 2:
		score = math.Min(score, 50)
	case meanLoss > 0.5:
		score = math.Min(score, 70)
	}

	return clampScore(score)
}

// pingScore bands the mean latency, then subtracts penalties for high
// variance and for the fraction of records tagged as latency spikes.
func pingScore(recs []history.Record) int {
	pings := make([]float64, 0, len(recs))
	spikes := 0
	for _, r := range recs {
		if r.PingMs != nil {
			pings = append(pings, *r.PingMs)
		}
		if r.Reason == monitor.ReasonPingSpike {
			spikes++
		}
	}
	if len(pings) == 0 {
		return 0
	}

	mean, _ := stats.Mean(pings)

	var score float64
	switch {
	case mean <= 20:
		score = 100
	case mean <= 35:
		score = 90
	case mean <= 50:
		score = 75
	case mean <= 75:
		score = 60
	case mean <= 100:
		score = 45
	default:
		score = math.Max(0, 40-(mean-100)/5)
	}

	if len(pings) >= 2 {
		stddev, _ := stats.StandardDeviationSample(pings)
		switch {
		case stddev > 50:
			score -= 30
		case stddev > 30:
			score -= 20
		case stddev > 15:
			score -= 10
		}
	}

	spikeFrac := float64(spikes) / float64(len(recs)) * 100
	switch {
	case spikeFrac > 5:
		score -= 25
	case spikeFrac > 2:
		score -= 15
	case spikeFrac > 0.5:
		score -= 5
	}

	return clampScore(score)
}

// connectionScore bands disconnect events per 24h.
func connectionScore(recs []history.Record, hours float64) int {
	disconnects := 0
	for _, r := range recs {
		if r.Reason == monitor.ReasonDisconnected {
			disconnects++
		}
	}

	rate := float64(disconnects) / hours * 24

	var score float64
	switch {
	case disconnects == 0:
		score = 100
	case rate <= 0.5:
		score = 90
	case rate <= 1:
		score = 75
	case rate <= 2:
		score = 60
	case rate <= 5:
		score = 40
	default:
		score = math.Max(0, 20-2*rate)
	}
	return clampScore(score)
}

// jitterScore bands the mean jitter with an extra penalty when the
// worst observed jitter was extreme.
func jitterScore(recs []history.Record) int {
	jitters := make([]float64, 0, len(recs))
	for _, r := range recs {
		if r.JitterMs != nil {
			jitters = append(jitters, *r.JitterMs)
		}
	}
	if len(jitters) == 0 {
		return 0
	}

	mean, _ := stats.Mean(jitters)
	max, _ := stats.Max(jitters)

	var score float64
	switch {
	case mean <= 3:
		score = 100
	case mean <= 8:
		score = 90
	case mean <= 15:
		score = 75
	case mean <= 30:
		score = 55
	default:
		score = math.Max(0, 30-mean)
	}

	switch {
	case max > 100:
		score -= 20
	case max > 50:
		score -= 10
	}

	return clampScore(score)
}

func gradeFor(score int) (string, string) {
	switch {
	case score >= 95:
		return "A+", "Outstanding"
	case score >= 90:
		return "A", "Excellent"
	case score >= 85:
		return "B+", "Very good"
	case score >= 80:
		return "B", "Good"
	case score >= 70:
		return "C+", "Decent"
	case score >= 60:
		return "C", "Acceptable"
	case score >= 50:
		return "D", "Poor"
	case score >= 30:
		return "E", "Bad"
	default:
		return "F", "Unusable"
	}
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
