package model_test

import (
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
)

// fixture assembles a small Chinook-shaped dataset row by row
type fixture struct {
	customers [][]any
	employees [][]any
	invoices  [][]any
	lines     [][]any
	tracks    [][]any
	albums    [][]any
	artists   [][]any
	genres    [][]any
	media     [][]any
	noMedia   bool
}

// newFixture returns a catalog of three tracks on two albums by two artists
func newFixture() *fixture {
	f := &fixture{}
	f.employees = [][]any{
		{int64(3), "Jane", "Peacock", "Sales Support Agent"},
		{int64(4), "Margaret", "Park", "Sales Support Agent"},
	}
	f.artists = [][]any{{int64(1), "AC/DC"}, {int64(2), "Queen"}}
	f.genres = [][]any{{int64(1), "Rock"}, {int64(2), "Jazz"}}
	f.media = [][]any{{int64(1), "MPEG audio file"}, {int64(2), "AAC audio file"}}
	f.albums = [][]any{
		{int64(10), "Back in Black", int64(1)},
		{int64(20), "Greatest Hits", int64(2)},
	}
	f.tracks = [][]any{
		{int64(100), "Hells Bells", int64(10), int64(1), int64(1), 0.99, int64(312000), "Young"},
		{int64(101), "Shoot to Thrill", int64(10), int64(1), int64(1), 0.99, int64(317000), nil},
		{int64(200), "Bohemian Rhapsody", int64(20), int64(2), int64(2), 1.99, int64(354000), "Mercury"},
	}
	return f
}

func (f *fixture) customer(id int64, first, last, country string) *fixture {
	f.customers = append(f.customers, []any{id, first, last, country, int64(3), "City"})
	return f
}

func (f *fixture) invoice(id, customerID int64, date string, total float64) *fixture {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	f.invoices = append(f.invoices, []any{id, customerID, d, "", total})
	return f
}

func (f *fixture) line(id, invoiceID, trackID int64, price float64, qty int64) *fixture {
	f.lines = append(f.lines, []any{id, invoiceID, trackID, price, qty})
	return f
}

func (f *fixture) tables() dataset.Tables {
	ts := dataset.Tables{
		dataset.TableCustomer: dataset.MustTable(dataset.TableCustomer, []dataset.Column{
			{Name: "CustomerId", Kind: dataset.KindInt},
			{Name: "FirstName", Kind: dataset.KindString},
			{Name: "LastName", Kind: dataset.KindString},
			{Name: "Country", Kind: dataset.KindString},
			{Name: "SupportRepId", Kind: dataset.KindInt},
			{Name: "City", Kind: dataset.KindString},
		}, f.customers),
		dataset.TableEmployee: dataset.MustTable(dataset.TableEmployee, []dataset.Column{
			{Name: "EmployeeId", Kind: dataset.KindInt},
			{Name: "FirstName", Kind: dataset.KindString},
			{Name: "LastName", Kind: dataset.KindString},
			{Name: "Title", Kind: dataset.KindString},
		}, f.employees),
		dataset.TableInvoice: dataset.MustTable(dataset.TableInvoice, []dataset.Column{
			{Name: "InvoiceId", Kind: dataset.KindInt},
			{Name: "CustomerId", Kind: dataset.KindInt},
			{Name: "InvoiceDate", Kind: dataset.KindTime},
			{Name: "BillingCountry", Kind: dataset.KindString},
			{Name: "Total", Kind: dataset.KindFloat},
		}, f.invoices),
		dataset.TableInvoiceLine: dataset.MustTable(dataset.TableInvoiceLine, []dataset.Column{
			{Name: "InvoiceLineId", Kind: dataset.KindInt},
			{Name: "InvoiceId", Kind: dataset.KindInt},
			{Name: "TrackId", Kind: dataset.KindInt},
			{Name: "UnitPrice", Kind: dataset.KindFloat},
			{Name: "Quantity", Kind: dataset.KindInt},
		}, f.lines),
		dataset.TableTrack: dataset.MustTable(dataset.TableTrack, []dataset.Column{
			{Name: "TrackId", Kind: dataset.KindInt},
			{Name: "Name", Kind: dataset.KindString},
			{Name: "AlbumId", Kind: dataset.KindInt},
			{Name: "MediaTypeId", Kind: dataset.KindInt},
			{Name: "GenreId", Kind: dataset.KindInt},
			{Name: "UnitPrice", Kind: dataset.KindFloat},
			{Name: "Milliseconds", Kind: dataset.KindInt},
			{Name: "Composer", Kind: dataset.KindString},
		}, f.tracks),
		dataset.TableAlbum: dataset.MustTable(dataset.TableAlbum, []dataset.Column{
			{Name: "AlbumId", Kind: dataset.KindInt},
			{Name: "Title", Kind: dataset.KindString},
			{Name: "ArtistId", Kind: dataset.KindInt},
		}, f.albums),
		dataset.TableArtist: dataset.MustTable(dataset.TableArtist, []dataset.Column{
			{Name: "ArtistId", Kind: dataset.KindInt},
			{Name: "Name", Kind: dataset.KindString},
		}, f.artists),
		dataset.TableGenre: dataset.MustTable(dataset.TableGenre, []dataset.Column{
			{Name: "GenreId", Kind: dataset.KindInt},
			{Name: "Name", Kind: dataset.KindString},
		}, f.genres),
	}
	if !f.noMedia {
		ts[dataset.TableMediaType] = dataset.MustTable(dataset.TableMediaType, []dataset.Column{
			{Name: "MediaTypeId", Kind: dataset.KindInt},
			{Name: "Name", Kind: dataset.KindString},
		}, f.media)
	}
	return ts
}
