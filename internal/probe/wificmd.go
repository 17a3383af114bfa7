package probe

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// NmcliWifi reads the active wifi link via nmcli. Every read is
// best-effort: any exec or parse failure yields an empty WifiInfo.
type NmcliWifi struct{}

func NewNmcliWifi() *NmcliWifi { return &NmcliWifi{} }

const nmcliFields = "ACTIVE,SSID,BSSID,SIGNAL,CHAN,FREQ,RATE,DEVICE"

func (w *NmcliWifi) Read(ctx context.Context) (WifiInfo, error) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "nmcli", "-t", "-f", nmcliFields, "device", "wifi", "list")
	out, err := cmd.Output()
	if err != nil {
		return WifiInfo{}, nil
	}
	return parseNmcliList(string(out)), nil
}

// parseNmcliList finds the active row of `nmcli -t dev wifi list` output.
// Terse mode separates fields with ':' and escapes literal colons (BSSID)
// with a backslash.
func parseNmcliList(out string) WifiInfo {
	for _, line := range strings.Split(out, "\n") {
		fields := splitNmcliLine(line)
		if len(fields) < 8 || !strings.EqualFold(fields[0], "yes") {
			continue
		}

		info := WifiInfo{
			Connected:   true,
			SSID:        fields[1],
			BSSID:       fields[2],
			AdapterName: fields[7],
		}

		if pct, err := strconv.Atoi(fields[3]); err == nil {
			dbm := PercentToDbm(pct)
			info.SignalPercent = &pct
			info.SignalDbm = &dbm
		}
		if ch, err := strconv.Atoi(fields[4]); err == nil {
			info.Channel = &ch
		}
		if mhz, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(fields[5]), " MHz")); err == nil {
			ghz := bandForMHz(mhz)
			info.FrequencyGhz = &ghz
		}
		// "270 Mbit/s"
		rate := strings.Fields(fields[6])
		if len(rate) > 0 {
			if mbps, err := strconv.ParseFloat(rate[0], 64); err == nil {
				info.LinkSpeedMbps = &mbps
			}
		}
		return info
	}
	return WifiInfo{}
}

func splitNmcliLine(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())
	return fields
}

func bandForMHz(mhz int) float64 {
	switch {
	case mhz >= 5925:
		return 6.0
	case mhz >= 4900:
		return 5.0
	default:
		return 2.4
	}
}

var _ WifiInfoSource = (*NmcliWifi)(nil)
