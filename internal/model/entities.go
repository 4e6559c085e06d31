package model

import (
	"fmt"
	"time"

	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/shopspring/decimal"
)

// ref is a nullable foreign key
type ref struct {
	ID    int64
	Valid bool
}

func readRef(b *dataset.Binding, row int, col string) ref {
	id, ok := b.Int(row, b.Col(col))
	return ref{ID: id, Valid: ok}
}

func readString(b *dataset.Binding, row int, col string) string {
	idx := b.Col(col)
	if idx < 0 {
		return ""
	}
	s, _ := b.String(row, idx)
	return s
}

// Customer is a decoded customer row
type Customer struct {
	ID           int64
	FirstName    string
	LastName     string
	Country      string
	City         string
	SupportRepID int64 // 0 when unassigned
}

type employee struct {
	id        int64
	firstName string
	lastName  string
	title     string
}

type invoice struct {
	id             int64
	customer       ref
	date           time.Time
	billingCountry string
	total          decimal.Decimal
}

type invoiceLine struct {
	id        int64
	invoice   ref
	track     ref
	unitPrice decimal.Decimal
	quantity  int64
}

type track struct {
	id           int64
	name         string
	composer     string
	album        ref
	mediaType    ref
	genre        ref
	unitPrice    decimal.Decimal
	milliseconds int64
}

type album struct {
	id     int64
	title  string
	artist ref
}

// named covers artist, genre and media type rows
type named struct {
	id   int64
	name string
}

func decodeCustomer(b *dataset.Binding, row int) Customer {
	id, _ := b.Int(row, b.Col("CustomerId"))
	rep := readRef(b, row, "SupportRepId")
	return Customer{
		ID:           id,
		FirstName:    readString(b, row, "FirstName"),
		LastName:     readString(b, row, "LastName"),
		Country:      readString(b, row, "Country"),
		City:         readString(b, row, "City"),
		SupportRepID: rep.ID,
	}
}

func decodeEmployee(b *dataset.Binding, row int) employee {
	id, _ := b.Int(row, b.Col("EmployeeId"))
	return employee{
		id:        id,
		firstName: readString(b, row, "FirstName"),
		lastName:  readString(b, row, "LastName"),
		title:     readString(b, row, "Title"),
	}
}

func decodeInvoice(b *dataset.Binding, row int) invoice {
	id, _ := b.Int(row, b.Col("InvoiceId"))
	date, _ := b.Time(row, b.Col("InvoiceDate"))
	total, _ := b.Decimal(row, b.Col("Total"))
	return invoice{
		id:             id,
		customer:       readRef(b, row, "CustomerId"),
		date:           date,
		billingCountry: readString(b, row, "BillingCountry"),
		total:          total,
	}
}

func decodeInvoiceLine(b *dataset.Binding, row int) (invoiceLine, error) {
	id, _ := b.Int(row, b.Col("InvoiceLineId"))
	price, ok := b.Decimal(row, b.Col("UnitPrice"))
	qty, _ := b.Int(row, b.Col("Quantity"))

	if !ok {
		return invoiceLine{}, &dataset.SchemaError{
			Table:  dataset.TableInvoiceLine,
			Column: "UnitPrice",
			Reason: fmt.Sprintf("unit price on line %d is not a finite number", id),
		}
	}
	if price.IsNegative() {
		return invoiceLine{}, &dataset.SchemaError{
			Table:  dataset.TableInvoiceLine,
			Column: "UnitPrice",
			Reason: fmt.Sprintf("negative unit price %s on line %d", price, id),
		}
	}
	if qty <= 0 {
		return invoiceLine{}, &dataset.SchemaError{
			Table:  dataset.TableInvoiceLine,
			Column: "Quantity",
			Reason: fmt.Sprintf("non-positive quantity %d on line %d", qty, id),
		}
	}

	return invoiceLine{
		id:        id,
		invoice:   readRef(b, row, "InvoiceId"),
		track:     readRef(b, row, "TrackId"),
		unitPrice: price,
		quantity:  qty,
	}, nil
}

func decodeTrack(b *dataset.Binding, row int) track {
	id, _ := b.Int(row, b.Col("TrackId"))
	price, _ := b.Decimal(row, b.Col("UnitPrice"))
	ms, _ := b.Int(row, b.Col("Milliseconds"))
	return track{
		id:           id,
		name:         readString(b, row, "Name"),
		composer:     readString(b, row, "Composer"),
		album:        readRef(b, row, "AlbumId"),
		mediaType:    readRef(b, row, "MediaTypeId"),
		genre:        readRef(b, row, "GenreId"),
		unitPrice:    price,
		milliseconds: ms,
	}
}

func decodeAlbum(b *dataset.Binding, row int) album {
	id, _ := b.Int(row, b.Col("AlbumId"))
	return album{
		id:     id,
		title:  readString(b, row, "Title"),
		artist: readRef(b, row, "ArtistId"),
	}
}

func namedDecoder(idCol string) func(*dataset.Binding, int) named {
	return func(b *dataset.Binding, row int) named {
		id, _ := b.Int(row, b.Col(idCol))
		return named{id: id, name: readString(b, row, "Name")}
	}
}

// buildIndex decodes every row of a parent table keyed by its primary key.
// Parent keys must be unique under every policy.
func buildIndex[T any](b *dataset.Binding, keyCol string, decode func(*dataset.Binding, int) T) (map[int64]T, error) {
	idx := make(map[int64]T, b.Len())
	col := b.Col(keyCol)
	for row := 0; row < b.Len(); row++ {
		key, _ := b.Int(row, col)
		if _, dup := idx[key]; dup {
			return nil, &dataset.IntegrityError{
				Table:  b.Name(),
				Column: keyCol,
				Key:    key,
				Parent: b.Name(),
				Reason: "duplicate primary key",
			}
		}
		idx[key] = decode(b, row)
	}
	return idx, nil
}
