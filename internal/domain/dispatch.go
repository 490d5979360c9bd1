package domain

import (
	"strings"
	"sync/atomic"
	"time"
)

type Payload struct {
	Text     string
	FilePath string
	Voice    bool
}

func (p Payload) IsFile() bool {
	return strings.TrimSpace(p.FilePath) != ""
}

func (p Payload) Validate() error {
	if strings.TrimSpace(p.Text) == "" && !p.IsFile() {
		return ErrEmptyMessage
	}
	return nil
}

type DispatchResult struct {
	Phone   Phone
	Target  string
	Outcome Outcome
	At      time.Time
}

// DispatchEvent is published once per completed send.
type DispatchEvent struct {
	RunID  string
	Index  int
	Total  int
	Result DispatchResult
}

type Assignment struct {
	Phone   Phone
	Targets []string
}

type Pair struct {
	Phone  Phone
	Target string
}

// AssignRoundRobin maps targets[i] to accounts[i mod len(accounts)].
func AssignRoundRobin(accounts []Phone, targets []string) []Pair {
	if len(accounts) == 0 {
		return nil
	}
	pairs := make([]Pair, 0, len(targets))
	for i, target := range targets {
		pairs = append(pairs, Pair{Phone: accounts[i%len(accounts)], Target: target})
	}
	return pairs
}

func TallyResults(results []DispatchResult) Tally {
	outcomes := make([]Outcome, 0, len(results))
	for _, r := range results {
		outcomes = append(outcomes, r.Outcome)
	}
	return TallyOutcomes(outcomes)
}

// CancelFlag is checked once per dispatch iteration; it never interrupts an
// in-flight send.
type CancelFlag struct {
	v atomic.Bool
}

func (f *CancelFlag) Cancel() {
	if f != nil {
		f.v.Store(true)
	}
}

func (f *CancelFlag) Cancelled() bool {
	return f != nil && f.v.Load()
}

type BroadcastPolicy string

const (
	BroadcastPolicyMetadata BroadcastPolicy = "metadata"
	BroadcastPolicyLive     BroadcastPolicy = "live"
)

func ParseBroadcastPolicy(raw string) (BroadcastPolicy, bool) {
	switch BroadcastPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", BroadcastPolicyMetadata:
		return BroadcastPolicyMetadata, true
	case BroadcastPolicyLive:
		return BroadcastPolicyLive, true
	default:
		return "", false
	}
}
