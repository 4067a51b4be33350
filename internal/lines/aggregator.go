package lines

import "time"

const (
	// TotalsWindow is the quiescence window before totals are recomputed
	TotalsWindow = 500 * time.Millisecond
	// LookupWindow debounces component reference lookups
	LookupWindow = 300 * time.Millisecond
)

// Ticket identifies one scheduled run. Only the newest ticket of a
// Debouncer is due; older ones are superseded.
type Ticket struct {
	Seq   uint64
	After time.Duration
}

// Debouncer hands out tickets. It holds no timer itself: the caller's event
// loop delivers the ticket back after Ticket.After and asks Due.
type Debouncer struct {
	Window time.Duration
	seq    uint64
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{Window: window}
}

// Touch supersedes any pending ticket and returns a new one
func (d *Debouncer) Touch() Ticket {
	d.seq++
	return Ticket{Seq: d.seq, After: d.Window}
}

// Due reports whether seq is still the newest ticket
func (d *Debouncer) Due(seq uint64) bool {
	return seq == d.seq
}

// Seq returns the newest ticket sequence
func (d *Debouncer) Seq() uint64 { return d.seq }

// Aggregator recomputes totals once the line items stop changing
type Aggregator struct {
	debounce *Debouncer
	pending  []LineItem
	waiting  bool
	totals   Totals
}

func NewAggregator(window time.Duration) *Aggregator {
	return &Aggregator{debounce: NewDebouncer(window)}
}

// Touch records the newest row set and restarts the window
func (a *Aggregator) Touch(items []LineItem) Ticket {
	a.pending = append(a.pending[:0:0], items...)
	a.waiting = true
	return a.debounce.Touch()
}

// Settle publishes totals for seq if it is still the newest ticket
func (a *Aggregator) Settle(seq uint64) (Totals, bool) {
	if !a.waiting || !a.debounce.Due(seq) {
		return a.totals, false
	}
	return a.Flush(), true
}

// Flush runs the pending computation now
func (a *Aggregator) Flush() Totals {
	if a.waiting {
		a.totals = Compute(a.pending)
		a.pending = nil
		a.waiting = false
	}
	return a.totals
}

// Override replaces the totals with server values and drops any pending run
func (a *Aggregator) Override(t Totals) {
	a.totals = t
	a.pending = nil
	a.waiting = false
	a.debounce.Touch()
}

func (a *Aggregator) Totals() Totals { return a.totals }

func (a *Aggregator) Pending() bool { return a.waiting }

// Seq returns the newest ticket sequence
func (a *Aggregator) Seq() uint64 { return a.debounce.Seq() }
