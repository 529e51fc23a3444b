package migrate_test

import (
	"context"
	"testing"
	"time"

	"sailorskills-migrate/internal/migrate"
)

func TestServiceLogLinker_PaymentIntentBeatsHeuristic(t *testing.T) {
	store := newFakeLinkerStore()
	store.logs = []migrate.ServiceLog{
		{ID: "sl-1", CustomerID: "C1", OrderID: sptr("pi_123"), ServiceDate: date("2024-06-10")},
	}
	store.invoices = []migrate.Invoice{
		// Same-day invoice the heuristic would pick.
		{ID: "inv-near", InvoiceNumber: "ZB-1", CustomerID: "C1", IssuedAt: date("2024-06-10")},
		{ID: "inv-intent", InvoiceNumber: "ZB-2", CustomerID: "C1", IssuedAt: date("2024-01-01")},
	}
	store.payments = []migrate.Payment{
		{ID: "pay-1", InvoiceID: sptr("inv-intent"), StripePaymentIntentID: sptr("pi_123")},
	}

	linker := migrate.NewServiceLogLinker(store, nil, migrate.LinkerOptions{})
	result, err := linker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.HighConfidence != 1 || result.MediumConfidence != 0 {
		t.Errorf("expected high=1 medium=0, got %d/%d", result.HighConfidence, result.MediumConfidence)
	}
	if store.linked["sl-1"] != "inv-intent" {
		t.Errorf("expected intent match to win over date proximity, got %q", store.linked["sl-1"])
	}
	if result.Updates[0].MatchType != migrate.MatchPaymentIntent {
		t.Errorf("expected payment_intent match type, got %s", result.Updates[0].MatchType)
	}
}

func TestServiceLogLinker_HeuristicWindow(t *testing.T) {
	store := newFakeLinkerStore()
	store.logs = []migrate.ServiceLog{
		{ID: "sl-in", CustomerID: "C1", ServiceDate: date("2024-06-10")},
		{ID: "sl-out", CustomerID: "C1", ServiceDate: date("2024-09-01")},
		{ID: "sl-other", CustomerID: "C9", ServiceDate: date("2024-06-10")},
	}
	store.invoices = []migrate.Invoice{
		{ID: "inv-1", InvoiceNumber: "ZB-1", CustomerID: "C1", IssuedAt: date("2024-06-13")},
	}

	linker := migrate.NewServiceLogLinker(store, nil, migrate.LinkerOptions{})
	result, err := linker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MediumConfidence != 1 {
		t.Errorf("expected 1 heuristic match, got %d", result.MediumConfidence)
	}
	if store.linked["sl-in"] != "inv-1" {
		t.Errorf("expected sl-in linked to inv-1, got %q", store.linked["sl-in"])
	}
	if result.Unlinked != 2 {
		t.Errorf("expected 2 unlinked (outside window, wrong customer), got %d", result.Unlinked)
	}
	if len(result.UnlinkedLogs) != 2 {
		t.Errorf("expected unlinked logs collected for CSV export, got %d", len(result.UnlinkedLogs))
	}
}

// The shipped heuristic takes the first invoice inside the window in load
// order, not the closest. This pins that behavior down so a change to it is
// deliberate.
func TestFirstWithinWindow_TakesFirstNotNearest(t *testing.T) {
	candidates := []migrate.Invoice{
		{ID: "inv-far", IssuedAt: date("2024-06-16")},  // 6 days out
		{ID: "inv-near", IssuedAt: date("2024-06-11")}, // 1 day out
	}
	inv, ok := migrate.FirstWithinWindow(date("2024-06-10"), candidates, migrate.DefaultMatchWindow)
	if !ok {
		t.Fatal("expected a match within the window")
	}
	if inv.ID != "inv-far" {
		t.Errorf("expected first candidate in load order, got %s", inv.ID)
	}
}

func TestNearestWithinWindow_TakesNearest(t *testing.T) {
	candidates := []migrate.Invoice{
		{ID: "inv-far", IssuedAt: date("2024-06-16")},
		{ID: "inv-near", IssuedAt: date("2024-06-11")},
	}
	inv, ok := migrate.NearestWithinWindow(date("2024-06-10"), candidates, migrate.DefaultMatchWindow)
	if !ok {
		t.Fatal("expected a match within the window")
	}
	if inv.ID != "inv-near" {
		t.Errorf("expected nearest candidate, got %s", inv.ID)
	}

	_, ok = migrate.NearestWithinWindow(date("2024-01-01"), candidates, migrate.DefaultMatchWindow)
	if ok {
		t.Error("expected no match outside the window")
	}
}

func TestServiceLogLinker_CustomWindowAndStrategy(t *testing.T) {
	store := newFakeLinkerStore()
	store.logs = []migrate.ServiceLog{
		{ID: "sl-1", CustomerID: "C1", ServiceDate: date("2024-06-10")},
	}
	store.invoices = []migrate.Invoice{
		{ID: "inv-far", InvoiceNumber: "ZB-1", CustomerID: "C1", IssuedAt: date("2024-06-16")},
		{ID: "inv-near", InvoiceNumber: "ZB-2", CustomerID: "C1", IssuedAt: date("2024-06-11")},
	}

	linker := migrate.NewServiceLogLinker(store, nil, migrate.LinkerOptions{
		Window: 14 * 24 * time.Hour,
		Match:  migrate.NearestWithinWindow,
	})
	result, err := linker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MediumConfidence != 1 {
		t.Fatalf("expected a heuristic match, got %d", result.MediumConfidence)
	}
	if store.linked["sl-1"] != "inv-near" {
		t.Errorf("expected nearest strategy to pick inv-near, got %q", store.linked["sl-1"])
	}
}

func TestServiceLogLinker_RerunSkipsLinkedLogs(t *testing.T) {
	store := newFakeLinkerStore()
	store.logs = []migrate.ServiceLog{
		{ID: "sl-1", CustomerID: "C1", ServiceDate: date("2024-06-10")},
	}
	store.invoices = []migrate.Invoice{
		{ID: "inv-1", InvoiceNumber: "ZB-1", CustomerID: "C1", IssuedAt: date("2024-06-11")},
	}

	linker := migrate.NewServiceLogLinker(store, nil, migrate.LinkerOptions{})
	first, err := linker.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(first.Updates) != 1 {
		t.Fatalf("expected 1 update on first run, got %d", len(first.Updates))
	}

	second, err := linker.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Total != 0 || len(second.Updates) != 0 {
		t.Errorf("expected nothing to do on re-run, got total=%d updates=%d", second.Total, len(second.Updates))
	}
}

func TestServiceLogLinker_DryRunWritesNothing(t *testing.T) {
	store := newFakeLinkerStore()
	store.logs = []migrate.ServiceLog{
		{ID: "sl-1", CustomerID: "C1", ServiceDate: date("2024-06-10")},
	}
	store.invoices = []migrate.Invoice{
		{ID: "inv-1", InvoiceNumber: "ZB-1", CustomerID: "C1", IssuedAt: date("2024-06-11")},
	}

	linker := migrate.NewServiceLogLinker(store, nil, migrate.LinkerOptions{DryRun: true})
	result, err := linker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MediumConfidence != 1 {
		t.Errorf("expected match recorded during dry run, got %d", result.MediumConfidence)
	}
	if len(store.linked) != 0 {
		t.Error("dry run must not update service logs")
	}
}

func TestUnlinkedCSVRows(t *testing.T) {
	logs := []migrate.ServiceLog{
		{ID: "sl-1", CustomerID: "C1", BoatID: sptr("B1"), OrderID: sptr("ord-9"), ServiceDate: date("2024-06-10")},
		{ID: "sl-2", CustomerID: "C2", ServiceDate: date("2024-07-01")},
	}
	rows := migrate.UnlinkedCSVRows(logs)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := []string{"sl-1", "C1", "B1", "2024-06-10", "ord-9"}
	for i, v := range want {
		if rows[0][i] != v {
			t.Errorf("row 0 col %d: expected %q, got %q", i, v, rows[0][i])
		}
	}
	if rows[1][2] != "" || rows[1][4] != "" {
		t.Error("expected empty strings for nil boat and order ids")
	}
	if len(migrate.UnlinkedCSVHeaders()) != len(rows[0]) {
		t.Error("header and row width mismatch")
	}
}

func TestLinkageRate(t *testing.T) {
	r := &migrate.LinkageResult{Total: 4, HighConfidence: 1, MediumConfidence: 1, Unlinked: 2}
	if rate := r.LinkageRate(); rate != 0.5 {
		t.Errorf("expected rate 0.5, got %v", rate)
	}
	empty := &migrate.LinkageResult{}
	if rate := empty.LinkageRate(); rate != 0 {
		t.Errorf("expected rate 0 for empty result, got %v", rate)
	}
}
