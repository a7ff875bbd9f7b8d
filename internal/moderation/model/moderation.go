package model

// Ban is a global suspension keyed by nickname and IP. UntilTimestamp -1
// means permanent. One active ban per identity: a new ban for the same
// nickname or IP replaces the old entry.
type Ban struct {
	Username       string `json:"username"`
	IP             string `json:"ip"`
	Reason         string `json:"reason"`
	Until          string `json:"until"`
	UntilTimestamp int64  `json:"until_timestamp"`
	BannedAt       int64  `json:"banned_at"`
	BannedBy       string `json:"banned_by"`
}

func (b Ban) ActiveAt(now int64) bool {
	return b.UntilTimestamp == -1 || b.UntilTimestamp > now
}

func (b Ban) Permanent() bool {
	return b.UntilTimestamp == -1
}

type BannedDoc struct {
	Users []Ban `json:"users"`
}

// Mute is a room-scoped, time-boxed send suspension. Expired entries are
// lazily deleted on the next message check.
type Mute struct {
	UntilTimestamp  int64  `json:"until_timestamp"`
	By              string `json:"by"`
	DurationMinutes int    `json:"duration"`
}

func (m Mute) ActiveAt(now int64) bool {
	return m.UntilTimestamp > now
}

// MutedDoc is the muted collection: room -> nickname -> mute.
type MutedDoc map[string]map[string]Mute
