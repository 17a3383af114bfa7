package probe

import "testing"

const pingOutput = `PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data.
64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=10.2 ms
64 bytes from 8.8.8.8: icmp_seq=2 ttl=117 time=15.0 ms
64 bytes from 8.8.8.8: icmp_seq=3 ttl=117 time=12.4 ms
64 bytes from 8.8.8.8: icmp_seq=5 ttl=117 time=11.1 ms

--- 8.8.8.8 ping statistics ---
5 packets transmitted, 4 received, 20% packet loss, time 4005ms
rtt min/avg/max/mdev = 10.2/12.2/15.0/1.8 ms
`

func TestParsePingOutput(t *testing.T) {
	samples := parsePingOutput(pingOutput, 5)
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}

	var ok int
	for _, s := range samples {
		if s.Success {
			ok++
		}
	}
	if ok != 4 {
		t.Errorf("expected 4 successful samples, got %d", ok)
	}
	if samples[0].LatencyMs != 10.2 {
		t.Errorf("first latency = %v", samples[0].LatencyMs)
	}
	// Burst order must be preserved (jitter depends on it).
	if samples[1].LatencyMs != 15.0 || samples[2].LatencyMs != 12.4 {
		t.Errorf("samples out of burst order: %+v", samples[:4])
	}
}

func TestParsePingOutputUnreachable(t *testing.T) {
	samples := parsePingOutput("ping: connect: Network is unreachable\n", 5)
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}
	for _, s := range samples {
		if s.Success {
			t.Fatal("expected all samples failed")
		}
	}
}

const nmcliOutput = `no:HomeNet Guest:AA\:BB\:CC\:DD\:EE\:F0:54:6:2437 MHz:130 Mbit/s:wlan0
yes:HomeNet:AA\:BB\:CC\:DD\:EE\:FF:72:36:5180 MHz:270 Mbit/s:wlan0
`

func TestParseNmcliList(t *testing.T) {
	info := parseNmcliList(nmcliOutput)
	if !info.Connected {
		t.Fatal("expected connected")
	}
	if info.SSID != "HomeNet" {
		t.Errorf("ssid = %q", info.SSID)
	}
	if info.BSSID != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("bssid = %q", info.BSSID)
	}
	if info.SignalPercent == nil || *info.SignalPercent != 72 {
		t.Errorf("signal percent = %v", info.SignalPercent)
	}
	if info.SignalDbm == nil || *info.SignalDbm != PercentToDbm(72) {
		t.Errorf("signal dbm = %v", info.SignalDbm)
	}
	if info.FrequencyGhz == nil || *info.FrequencyGhz != 5.0 {
		t.Errorf("frequency = %v", info.FrequencyGhz)
	}
	if info.LinkSpeedMbps == nil || *info.LinkSpeedMbps != 270 {
		t.Errorf("link speed = %v", info.LinkSpeedMbps)
	}
}

func TestParseNmcliListEmpty(t *testing.T) {
	info := parseNmcliList("")
	if info.Connected || info.SSID != "" || info.SignalPercent != nil {
		t.Errorf("expected empty info, got %+v", info)
	}
}

func TestPercentToDbm(t *testing.T) {
	if got := PercentToDbm(100); got != -30 {
		t.Errorf("100%% = %d dBm", got)
	}
	if got := PercentToDbm(0); got != -100 {
		t.Errorf("0%% = %d dBm", got)
	}
}
