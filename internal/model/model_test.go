package model_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/franz/chinook-insights/internal/model"
	"github.com/shopspring/decimal"
)

func basicSales() *fixture {
	return newFixture().
		customer(1, "Alice", "Schmidt", "DE").
		customer(2, "Bob", "Stone", "USA").
		invoice(1, 1, "2021-01-15", 1.98).
		invoice(2, 2, "2021-02-10", 3.98).
		line(1, 1, 100, 0.99, 2).
		line(2, 2, 200, 1.99, 2)
}

func TestSalesLineItemsEnrichment(t *testing.T) {
	items, stats, err := model.New(basicSales().tables()).SalesLineItems()
	if err != nil {
		t.Fatalf("SalesLineItems failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if stats.Input != 2 || stats.Output != 2 || stats.DroppedTotal() != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	first := items[0]
	if first.InvoiceLineID != 1 || first.CustomerID != 1 || first.Country != "DE" {
		t.Errorf("unexpected customer enrichment: %+v", first)
	}
	if first.TrackName != "Hells Bells" || first.AlbumTitle != "Back in Black" {
		t.Errorf("unexpected track enrichment: %+v", first)
	}
	if first.ArtistName != "AC/DC" || first.GenreName != "Rock" || first.MediaTypeName != "MPEG audio file" {
		t.Errorf("unexpected catalog enrichment: %+v", first)
	}
	if !first.Revenue.Equal(decimal.RequireFromString("1.98")) {
		t.Errorf("expected revenue 1.98, got %s", first.Revenue)
	}

	// 2021-01-15 is a Friday in ISO week 2, first quarter
	if first.Year != 2021 || first.Month != time.January || first.Quarter != 1 || first.Week != 2 || first.Weekday != time.Friday {
		t.Errorf("unexpected calendar features: %d %v Q%d W%d %v",
			first.Year, first.Month, first.Quarter, first.Week, first.Weekday)
	}

	if items[1].GenreName != "Jazz" || items[1].ArtistName != "Queen" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestRevenueConservation(t *testing.T) {
	f := basicSales().
		invoice(3, 1, "2021-03-01", 0).
		line(3, 3, 101, 0.99, 1).
		line(4, 3, 100, 0.99, 3).
		line(5, 3, 200, 1.99, 1)

	items, _, err := model.New(f.tables()).SalesLineItems()
	if err != nil {
		t.Fatalf("SalesLineItems failed: %v", err)
	}

	want := decimal.Zero
	for _, l := range f.lines {
		price := decimal.NewFromFloat(l[3].(float64))
		want = want.Add(price.Mul(decimal.NewFromInt(l[4].(int64))))
	}

	got := decimal.Zero
	for _, it := range items {
		if !it.Revenue.Equal(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))) {
			t.Errorf("line %d: revenue %s != price × quantity", it.InvoiceLineID, it.Revenue)
		}
		got = got.Add(it.Revenue)
	}

	if !got.Equal(want) {
		t.Errorf("revenue not conserved: items %s, raw lines %s", got, want)
	}
}

func TestDanglingTrackDefaultPolicy(t *testing.T) {
	f := basicSales().line(3, 1, 999, 5.00, 1)

	items, stats, err := model.New(f.tables()).SalesLineItems()
	if err != nil {
		t.Fatalf("drop policy should not fail: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected dangling line to be dropped, got %d items", len(items))
	}
	if stats.Dropped[dataset.TableTrack] != 1 || stats.DroppedTotal() != 1 {
		t.Errorf("expected one dropped track row, got %+v", stats.Dropped)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Revenue)
	}
	if !total.Equal(decimal.RequireFromString("5.96")) {
		t.Errorf("expected total 5.96 without the dangling line, got %s", total)
	}
}

func TestDanglingTrackStrictPolicy(t *testing.T) {
	f := basicSales().line(3, 1, 999, 5.00, 1)

	_, _, err := model.New(f.tables(), model.WithPolicy(model.PolicyStrict)).SalesLineItems()
	if err == nil {
		t.Fatal("expected IntegrityError under strict policy")
	}

	var integrityErr *dataset.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected *dataset.IntegrityError, got %T: %v", err, err)
	}
	if integrityErr.Table != dataset.TableInvoiceLine || integrityErr.Column != "TrackId" {
		t.Errorf("unexpected error location: %+v", integrityErr)
	}
	if integrityErr.Key != int64(999) || integrityErr.Parent != dataset.TableTrack {
		t.Errorf("expected unresolved track 999, got %+v", integrityErr)
	}
	if !errors.Is(err, dataset.ErrIntegrity) {
		t.Error("IntegrityError should wrap ErrIntegrity")
	}
}

func TestDanglingLinksAcrossRelations(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(f *fixture)
		relation string
	}{
		{
			name:     "invoice missing",
			mutate:   func(f *fixture) { f.line(3, 42, 100, 0.99, 1) },
			relation: dataset.TableInvoice,
		},
		{
			name: "customer missing",
			mutate: func(f *fixture) {
				f.invoice(3, 77, "2021-04-01", 0.99).line(3, 3, 100, 0.99, 1)
			},
			relation: dataset.TableCustomer,
		},
		{
			name: "album missing",
			mutate: func(f *fixture) {
				f.tracks = append(f.tracks, []any{int64(300), "Orphan", int64(55), int64(1), int64(1), 0.99, int64(1000), nil})
				f.line(3, 1, 300, 0.99, 1)
			},
			relation: dataset.TableAlbum,
		},
		{
			name: "genre null",
			mutate: func(f *fixture) {
				f.tracks = append(f.tracks, []any{int64(301), "No Genre", int64(10), int64(1), nil, 0.99, int64(1000), nil})
				f.line(3, 1, 301, 0.99, 1)
			},
			relation: dataset.TableGenre,
		},
		{
			name: "artist missing",
			mutate: func(f *fixture) {
				f.albums = append(f.albums, []any{int64(30), "Lost", int64(9)})
				f.tracks = append(f.tracks, []any{int64(302), "Lost Song", int64(30), int64(1), int64(1), 0.99, int64(1000), nil})
				f.line(3, 1, 302, 0.99, 1)
			},
			relation: dataset.TableArtist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := basicSales()
			tc.mutate(f)

			items, stats, err := model.New(f.tables()).SalesLineItems()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != 2 {
				t.Errorf("expected 2 items, got %d", len(items))
			}
			if stats.Dropped[tc.relation] != 1 {
				t.Errorf("expected drop under %s, got %+v", tc.relation, stats.Dropped)
			}

			_, _, err = model.New(f.tables(), model.WithPolicy(model.PolicyStrict)).SalesLineItems()
			var integrityErr *dataset.IntegrityError
			if !errors.As(err, &integrityErr) || integrityErr.Parent != tc.relation {
				t.Errorf("expected strict IntegrityError for %s, got %v", tc.relation, err)
			}
		})
	}
}

func TestNullForeignKeyStrictNamesNull(t *testing.T) {
	f := basicSales()
	f.lines = append(f.lines, []any{int64(3), int64(1), nil, 0.99, int64(1)})

	_, _, err := model.New(f.tables(), model.WithPolicy(model.PolicyStrict)).SalesLineItems()
	var integrityErr *dataset.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if integrityErr.Key != nil {
		t.Errorf("expected nil key for a null foreign key, got %v", integrityErr.Key)
	}
}

func TestSchemaErrorBeforeJoin(t *testing.T) {
	f := basicSales().line(3, 1, 999, 5.00, 1)
	tables := f.tables()
	delete(tables, dataset.TableGenre)

	// a missing table must win over the dangling key even under strict policy
	_, _, err := model.New(tables, model.WithPolicy(model.PolicyStrict)).SalesLineItems()
	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %T: %v", err, err)
	}
	if schemaErr.Table != dataset.TableGenre {
		t.Errorf("expected genre table to be named, got %+v", schemaErr)
	}
}

func TestSchemaErrorMissingColumn(t *testing.T) {
	tables := basicSales().tables()
	tables[dataset.TableInvoice] = dataset.MustTable(dataset.TableInvoice, []dataset.Column{
		{Name: "InvoiceId", Kind: dataset.KindInt},
		{Name: "CustomerId", Kind: dataset.KindInt},
		{Name: "BillingCountry", Kind: dataset.KindString},
		{Name: "Total", Kind: dataset.KindFloat},
	}, nil)

	_, _, err := model.New(tables).SalesLineItems()
	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Table != dataset.TableInvoice || schemaErr.Column != "InvoiceDate" {
		t.Errorf("expected invoice.InvoiceDate, got %+v", schemaErr)
	}
}

func TestInvalidQuantityIsSchemaError(t *testing.T) {
	f := basicSales().line(3, 1, 100, 0.99, 0)
	_, _, err := model.New(f.tables()).SalesLineItems()
	if !errors.Is(err, dataset.ErrSchema) {
		t.Errorf("expected schema error for zero quantity, got %v", err)
	}
}

func TestDuplicateParentKey(t *testing.T) {
	f := basicSales()
	f.genres = append(f.genres, []any{int64(1), "Rock Again"})

	_, _, err := model.New(f.tables()).SalesLineItems()
	var integrityErr *dataset.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected IntegrityError for duplicate genre id, got %v", err)
	}
	if integrityErr.Table != dataset.TableGenre || integrityErr.Key != int64(1) {
		t.Errorf("unexpected error: %+v", integrityErr)
	}
}

func TestSalesWithoutMediaTypes(t *testing.T) {
	f := basicSales()
	f.noMedia = true

	items, stats, err := model.New(f.tables()).SalesLineItems()
	if err != nil {
		t.Fatalf("media types are optional for sales: %v", err)
	}
	if len(items) != 2 || items[0].MediaTypeName != "" {
		t.Errorf("expected 2 items without media names, got %+v", items)
	}
	if len(stats.Unmatched) != 0 {
		t.Errorf("no media table means no left-join misses, got %+v", stats.Unmatched)
	}

	_, _, err = model.New(f.tables()).Catalog()
	if !errors.Is(err, dataset.ErrSchema) {
		t.Errorf("catalog requires media types, got %v", err)
	}
}

func TestCatalogCardinality(t *testing.T) {
	f := newFixture()
	entries, stats, err := model.New(f.tables()).Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(entries) != len(f.tracks) {
		t.Errorf("expected %d entries, got %d", len(f.tracks), len(entries))
	}
	if stats.Input != len(f.tracks) || stats.Output != len(entries) {
		t.Errorf("unexpected stats: %+v", stats)
	}

	hells := entries[0]
	if hells.ArtistName != "AC/DC" || hells.Composer != "Young" || hells.MediaTypeName != "MPEG audio file" {
		t.Errorf("unexpected entry: %+v", hells)
	}
	if hells.DurationMinutes != 5.2 {
		t.Errorf("expected 5.2 minutes, got %f", hells.DurationMinutes)
	}

	// a track with an unknown media type is dropped, never duplicated
	f.tracks = append(f.tracks, []any{int64(400), "Odd", int64(10), int64(9), int64(1), 0.99, int64(1000), nil})
	entries, stats, err = model.New(f.tables()).Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(entries) > len(f.tracks) || len(entries) != 3 {
		t.Errorf("expected 3 entries out of %d tracks, got %d", len(f.tracks), len(entries))
	}
	if stats.Dropped[dataset.TableMediaType] != 1 {
		t.Errorf("expected one media type drop, got %+v", stats.Dropped)
	}

	_, _, err = model.New(f.tables(), model.WithPolicy(model.PolicyStrict)).Catalog()
	if !errors.Is(err, dataset.ErrIntegrity) {
		t.Errorf("expected integrity error under strict policy, got %v", err)
	}
}

func TestCustomersDim(t *testing.T) {
	f := newFixture().customer(1, "Alice", "Schmidt", "DE").customer(2, "Bob", "Stone", "USA")
	f.customers[1][4] = int64(99)

	dims, stats, err := model.New(f.tables()).CustomersDim()
	if err != nil {
		t.Fatalf("CustomersDim failed: %v", err)
	}
	if len(dims) != 2 {
		t.Fatalf("left join must keep every customer, got %d", len(dims))
	}
	if dims[0].RepFirstName != "Jane" || dims[0].RepTitle != "Sales Support Agent" {
		t.Errorf("unexpected rep for Alice: %+v", dims[0])
	}
	if dims[1].RepFirstName != "" {
		t.Errorf("unresolved rep should leave fields empty: %+v", dims[1])
	}
	if stats.Unmatched[dataset.TableEmployee] != 1 {
		t.Errorf("expected one unmatched rep, got %+v", stats.Unmatched)
	}

	roster := model.Roster(dims)
	if len(roster) != 2 || roster[1].ID != 2 || roster[1].Country != "USA" {
		t.Errorf("unexpected roster: %+v", roster)
	}
}

func TestModelIdempotent(t *testing.T) {
	m := model.New(basicSales().tables())

	first, _, err := m.SalesLineItems()
	if err != nil {
		t.Fatalf("SalesLineItems failed: %v", err)
	}
	second, _, err := m.SalesLineItems()
	if err != nil {
		t.Fatalf("SalesLineItems failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two calls on the same tables should produce identical output")
	}

	// mutating a returned row must not leak into the next call
	first[0].Country = "XX"
	third, _, _ := m.SalesLineItems()
	if third[0].Country != "DE" {
		t.Error("returned rows must be owned by the caller")
	}
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in      string
		want    model.Policy
		wantErr bool
	}{
		{"", model.PolicyDrop, false},
		{"drop", model.PolicyDrop, false},
		{"STRICT", model.PolicyStrict, false},
		{"lenient", model.PolicyDrop, true},
	}
	for _, tc := range testCases {
		got, err := model.ParsePolicy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
