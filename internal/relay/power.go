package relay

// PowerPolicy picks the transmit power for each attempt from the last RSSI.
// It keeps no state between attempts.
type PowerPolicy struct {
	MaxPower        int // dBm
	Step            int // dB subtracted on a strong link
	Floor           int // dBm
	StrongSignalDBm int // RSSI above this is a strong link
}

func DefaultPowerPolicy() PowerPolicy {
	return PowerPolicy{MaxPower: 20, Step: 3, Floor: 5, StrongSignalDBm: -60}
}

// Select returns the output power in dBm. An RSSI of 0 means nothing has been
// heard yet and selects full power.
func (p PowerPolicy) Select(rssi int) int {
	if rssi == 0 || rssi <= p.StrongSignalDBm {
		return p.MaxPower
	}
	return max(p.MaxPower-p.Step, p.Floor)
}
