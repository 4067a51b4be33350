package lines

import "testing"

func TestAggregator_OnlyNewestTicketSettles(t *testing.T) {
	a := NewAggregator(TotalsWindow)

	first := a.Touch([]LineItem{componentLine("1", "100", "0")})
	second := a.Touch([]LineItem{componentLine("2", "100", "10")})

	if first.After != TotalsWindow {
		t.Fatalf("expected window %s got %s", TotalsWindow, first.After)
	}
	if _, ok := a.Settle(first.Seq); ok {
		t.Fatalf("superseded ticket must not settle")
	}
	if !a.Pending() {
		t.Fatalf("expected computation still pending")
	}

	totals, ok := a.Settle(second.Seq)
	if !ok {
		t.Fatalf("newest ticket must settle")
	}
	if !totals.Total.Equal(dec("220")) {
		t.Fatalf("expected total 220 got %s", totals.Total)
	}
	if a.Pending() {
		t.Fatalf("expected nothing pending after settle")
	}
	if _, ok := a.Settle(second.Seq); ok {
		t.Fatalf("a settled ticket must not settle twice")
	}
}

func TestAggregator_FlushMatchesDirectFold(t *testing.T) {
	items := []LineItem{
		componentLine("3", "19.99", "7"),
		NewSectionLine("Extras"),
		componentLine("0.5", "1200", "21"),
	}
	a := NewAggregator(TotalsWindow)
	a.Touch(items[:1])
	a.Touch(items)

	got := a.Flush()
	want := Compute(items)
	if !got.Equal(want) {
		t.Fatalf("flush %+v differs from fold %+v", got, want)
	}
}

func TestAggregator_TouchCopiesRows(t *testing.T) {
	items := []LineItem{componentLine("1", "10", "0")}
	a := NewAggregator(TotalsWindow)
	tk := a.Touch(items)

	items[0].SetQuantity(dec("50"))

	totals, _ := a.Settle(tk.Seq)
	if !totals.Untaxed.Equal(dec("10")) {
		t.Fatalf("expected the touched snapshot to be used, got %s", totals.Untaxed)
	}
}

func TestAggregator_OverrideDropsPending(t *testing.T) {
	a := NewAggregator(TotalsWindow)
	tk := a.Touch([]LineItem{componentLine("1", "10", "0")})

	server := Totals{Untaxed: dec("99"), Tax: dec("1"), Total: dec("100")}
	a.Override(server)

	if _, ok := a.Settle(tk.Seq); ok {
		t.Fatalf("pending run must be dropped by override")
	}
	if !a.Totals().Equal(server) {
		t.Fatalf("expected server totals got %+v", a.Totals())
	}
}

func TestDebouncer_Due(t *testing.T) {
	d := NewDebouncer(LookupWindow)
	a := d.Touch()
	b := d.Touch()
	if d.Due(a.Seq) {
		t.Fatalf("expected first ticket superseded")
	}
	if !d.Due(b.Seq) {
		t.Fatalf("expected second ticket due")
	}
	if d.Seq() != b.Seq {
		t.Fatalf("expected seq %d got %d", b.Seq, d.Seq())
	}
}
