package history

// Series holds the parallel chart sequences for a period, aligned by
// index. Absent metrics render as 0.
type Series struct {
	Timestamps []string  `json:"timestamps"`
	Ping       []float64 `json:"ping"`
	Jitter     []float64 `json:"jitter"`
	PacketLoss []float64 `json:"packet_loss"`
	Signal     []float64 `json:"signal"`
	Quality    []float64 `json:"quality"`
	Download   []float64 `json:"download"`
	Upload     []float64 `json:"upload"`
}

func buildSeries(recs []Record, tsFormat string) Series {
	s := Series{
		Timestamps: make([]string, 0, len(recs)),
		Ping:       make([]float64, 0, len(recs)),
		Jitter:     make([]float64, 0, len(recs)),
		PacketLoss: make([]float64, 0, len(recs)),
		Signal:     make([]float64, 0, len(recs)),
		Quality:    make([]float64, 0, len(recs)),
		Download:   make([]float64, 0, len(recs)),
		Upload:     make([]float64, 0, len(recs)),
	}
	for _, r := range recs {
		s.Timestamps = append(s.Timestamps, r.Timestamp.Format(tsFormat))
		s.Ping = append(s.Ping, floatOrZero(r.PingMs))
		s.Jitter = append(s.Jitter, floatOrZero(r.JitterMs))
		s.PacketLoss = append(s.PacketLoss, r.PacketLossPercent)
		s.Signal = append(s.Signal, intOrZero(r.SignalPercent))
		s.Quality = append(s.Quality, float64(r.QualityScore))
		s.Download = append(s.Download, r.DownloadMbps)
		s.Upload = append(s.Upload, r.UploadMbps)
	}
	return s
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
