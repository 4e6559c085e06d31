package model

import (
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/shopspring/decimal"
)

// SalesLineItem is one invoice line enriched with its invoice, customer,
// track, album, artist and genre.
type SalesLineItem struct {
	InvoiceLineID int64
	InvoiceID     int64
	InvoiceDate   time.Time

	CustomerID int64
	FirstName  string
	LastName   string
	Country    string // customer country
	City       string

	TrackID       int64
	TrackName     string
	AlbumID       int64
	AlbumTitle    string
	ArtistID      int64
	ArtistName    string
	GenreID       int64
	GenreName     string
	MediaTypeID   int64
	MediaTypeName string // empty when media types were not supplied

	UnitPrice decimal.Decimal
	Quantity  int64
	Revenue   decimal.Decimal // UnitPrice × Quantity

	Year    int
	Month   time.Month
	Quarter int
	Week    int // ISO week
	Weekday time.Weekday
}

// salesSpecs are the tables SalesLineItems cannot run without, in check order
var salesSpecs = []dataset.TableSpec{
	dataset.InvoiceLineSpec,
	dataset.InvoiceSpec,
	dataset.CustomerSpec,
	dataset.TrackSpec,
	dataset.AlbumSpec,
	dataset.ArtistSpec,
	dataset.GenreSpec,
}

// SalesLineItems builds the sales fact table: InvoiceLine ⋈ Invoice ⋈ Customer
// ⋈ Track ⋈ Album ⋈ Artist ⋈ Genre as inner joins. Media types are joined
// left when a mediatype table is present. Rows keep the invoice line order.
func (m *Model) SalesLineItems() ([]SalesLineItem, JoinStats, error) {
	bindings, err := dataset.BindAll(m.tables, salesSpecs...)
	if err != nil {
		return nil, JoinStats{}, err
	}
	lineB, invoiceB, customerB, trackB, albumB, artistB, genreB :=
		bindings[0], bindings[1], bindings[2], bindings[3], bindings[4], bindings[5], bindings[6]

	var mediaB *dataset.Binding
	if _, ok := m.tables[dataset.TableMediaType]; ok {
		if mediaB, err = dataset.MediaTypeSpec.Bind(m.tables); err != nil {
			return nil, JoinStats{}, err
		}
	}

	lines := make([]invoiceLine, 0, lineB.Len())
	for row := 0; row < lineB.Len(); row++ {
		l, err := decodeInvoiceLine(lineB, row)
		if err != nil {
			return nil, JoinStats{}, err
		}
		lines = append(lines, l)
	}

	invoices, err := buildIndex(invoiceB, "InvoiceId", decodeInvoice)
	if err != nil {
		return nil, JoinStats{}, err
	}
	customers, err := buildIndex(customerB, "CustomerId", decodeCustomer)
	if err != nil {
		return nil, JoinStats{}, err
	}
	tracks, err := buildIndex(trackB, "TrackId", decodeTrack)
	if err != nil {
		return nil, JoinStats{}, err
	}
	albums, err := buildIndex(albumB, "AlbumId", decodeAlbum)
	if err != nil {
		return nil, JoinStats{}, err
	}
	artists, err := buildIndex(artistB, "ArtistId", namedDecoder("ArtistId"))
	if err != nil {
		return nil, JoinStats{}, err
	}
	genres, err := buildIndex(genreB, "GenreId", namedDecoder("GenreId"))
	if err != nil {
		return nil, JoinStats{}, err
	}
	mediaTypes := map[int64]named{}
	if mediaB != nil {
		if mediaTypes, err = buildIndex(mediaB, "MediaTypeId", namedDecoder("MediaTypeId")); err != nil {
			return nil, JoinStats{}, err
		}
	}

	stats := newStats(len(lines))
	j := &joiner{policy: m.policy, stats: &stats}
	items := make([]SalesLineItem, 0, len(lines))

	for _, l := range lines {
		inv, ok, err := resolve(j, invoices, l.invoice, dataset.TableInvoiceLine, "InvoiceId", dataset.TableInvoice)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}
		cust, ok, err := resolve(j, customers, inv.customer, dataset.TableInvoice, "CustomerId", dataset.TableCustomer)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}
		tr, ok, err := resolve(j, tracks, l.track, dataset.TableInvoiceLine, "TrackId", dataset.TableTrack)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}
		alb, ok, err := resolve(j, albums, tr.album, dataset.TableTrack, "AlbumId", dataset.TableAlbum)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}
		art, ok, err := resolve(j, artists, alb.artist, dataset.TableAlbum, "ArtistId", dataset.TableArtist)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}
		gen, ok, err := resolve(j, genres, tr.genre, dataset.TableTrack, "GenreId", dataset.TableGenre)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}

		var media named
		if mediaB != nil {
			media, _ = lookupLeft(&stats, mediaTypes, tr.mediaType, dataset.TableMediaType)
		}

		_, week := inv.date.ISOWeek()
		items = append(items, SalesLineItem{
			InvoiceLineID: l.id,
			InvoiceID:     inv.id,
			InvoiceDate:   inv.date,
			CustomerID:    cust.ID,
			FirstName:     cust.FirstName,
			LastName:      cust.LastName,
			Country:       cust.Country,
			City:          cust.City,
			TrackID:       tr.id,
			TrackName:     tr.name,
			AlbumID:       alb.id,
			AlbumTitle:    alb.title,
			ArtistID:      art.id,
			ArtistName:    art.name,
			GenreID:       gen.id,
			GenreName:     gen.name,
			MediaTypeID:   tr.mediaType.ID,
			MediaTypeName: media.name,
			UnitPrice:     l.unitPrice,
			Quantity:      l.quantity,
			Revenue:       l.unitPrice.Mul(decimal.NewFromInt(l.quantity)),
			Year:          inv.date.Year(),
			Month:         inv.date.Month(),
			Quarter:       (int(inv.date.Month())-1)/3 + 1,
			Week:          week,
			Weekday:       inv.date.Weekday(),
		})
	}

	stats.Output = len(items)
	return items, stats, nil
}
