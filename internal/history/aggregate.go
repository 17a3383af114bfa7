package history

import "time"

// aggregate buckets records into fixed windows and reduces each bucket
// with a per-metric reducer rather than a uniform mean:
//
//   - packet loss, ping, jitter: maximum (never average a spike away)
//   - signal percent, quality:   minimum (show the worst moment)
//   - download, upload:          average
//
// A new bucket starts once the elapsed time since the bucket's FIRST
// record reaches the interval. With sparse records a bucket can run
// slightly longer than the interval; that tolerance suits irregular
// sampling better than calendar-aligned boundaries.
func aggregate(recs []Record, interval time.Duration) []Record {
	if len(recs) == 0 {
		return nil
	}

	out := make([]Record, 0, len(recs)/2+1)
	var bucket []Record
	var bucketStart time.Time

	for _, r := range recs {
		if len(bucket) == 0 {
			bucketStart = r.Timestamp
		}
		if r.Timestamp.Sub(bucketStart) < interval {
			bucket = append(bucket, r)
			continue
		}
		out = append(out, reduceBucket(bucket))
		bucket = bucket[:0]
		bucket = append(bucket, r)
		bucketStart = r.Timestamp
	}
	if len(bucket) > 0 {
		out = append(out, reduceBucket(bucket))
	}
	return out
}

// reduceBucket reduces one bucket into a single display record. Missing
// values are excluded from each reduction; a metric with no valid value
// in the bucket reduces to 0. The record keeps the literal timestamp of
// the bucket's middle member so chart points line up with real samples.
func reduceBucket(bucket []Record) Record {
	mid := bucket[len(bucket)/2]

	ping := maxOf(bucket, func(r Record) (float64, bool) {
		if r.PingMs == nil {
			return 0, false
		}
		return *r.PingMs, true
	})
	jitter := maxOf(bucket, func(r Record) (float64, bool) {
		if r.JitterMs == nil {
			return 0, false
		}
		return *r.JitterMs, true
	})
	loss := maxOf(bucket, func(r Record) (float64, bool) {
		return r.PacketLossPercent, true
	})
	signal := minOf(bucket, func(r Record) (float64, bool) {
		if r.SignalPercent == nil {
			return 0, false
		}
		return float64(*r.SignalPercent), true
	})
	quality := minOf(bucket, func(r Record) (float64, bool) {
		return float64(r.QualityScore), true
	})
	download := avgOf(bucket, func(r Record) (float64, bool) {
		return r.DownloadMbps, true
	})
	upload := avgOf(bucket, func(r Record) (float64, bool) {
		return r.UploadMbps, true
	})

	signalInt := int(signal)
	return Record{
		Timestamp:         mid.Timestamp,
		Connected:         mid.Connected,
		PingMs:            &ping,
		JitterMs:          &jitter,
		PacketLossPercent: loss,
		SignalPercent:     &signalInt,
		QualityScore:      int(quality),
		DownloadMbps:      download,
		UploadMbps:        upload,
	}
}

func maxOf(recs []Record, get func(Record) (float64, bool)) float64 {
	best, seen := 0.0, false
	for _, r := range recs {
		v, ok := get(r)
		if !ok {
			continue
		}
		if !seen || v > best {
			best, seen = v, true
		}
	}
	return best
}

func minOf(recs []Record, get func(Record) (float64, bool)) float64 {
	best, seen := 0.0, false
	for _, r := range recs {
		v, ok := get(r)
		if !ok {
			continue
		}
		if !seen || v < best {
			best, seen = v, true
		}
	}
	return best
}

func avgOf(recs []Record, get func(Record) (float64, bool)) float64 {
	sum, n := 0.0, 0
	for _, r := range recs {
		v, ok := get(r)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
