package dataset

import "fmt"

// Raw table names
const (
	TableCustomer    = "customer"
	TableEmployee    = "employee"
	TableInvoice     = "invoice"
	TableInvoiceLine = "invoiceline"
	TableTrack       = "track"
	TableAlbum       = "album"
	TableArtist      = "artist"
	TableGenre       = "genre"
	TableMediaType   = "mediatype"
)

// ColumnSpec is a column an entity needs from its raw table
type ColumnSpec struct {
	Name     string
	Kind     Kind
	Nullable bool // null cells are allowed (foreign keys, free text)
	Optional bool // the column may be absent altogether
}

// TableSpec lists the columns an entity reads from one raw table
type TableSpec struct {
	Table   string
	Columns []ColumnSpec
}

// Entity schemas for the Chinook tables
var (
	CustomerSpec = TableSpec{Table: TableCustomer, Columns: []ColumnSpec{
		{Name: "CustomerId", Kind: KindInt},
		{Name: "FirstName", Kind: KindString, Nullable: true},
		{Name: "LastName", Kind: KindString, Nullable: true},
		{Name: "Country", Kind: KindString, Nullable: true},
		{Name: "SupportRepId", Kind: KindInt, Nullable: true},
		{Name: "City", Kind: KindString, Nullable: true, Optional: true},
	}}

	EmployeeSpec = TableSpec{Table: TableEmployee, Columns: []ColumnSpec{
		{Name: "EmployeeId", Kind: KindInt},
		{Name: "FirstName", Kind: KindString, Nullable: true},
		{Name: "LastName", Kind: KindString, Nullable: true},
		{Name: "Title", Kind: KindString, Nullable: true},
	}}

	InvoiceSpec = TableSpec{Table: TableInvoice, Columns: []ColumnSpec{
		{Name: "InvoiceId", Kind: KindInt},
		{Name: "CustomerId", Kind: KindInt, Nullable: true},
		{Name: "InvoiceDate", Kind: KindTime},
		{Name: "BillingCountry", Kind: KindString, Nullable: true},
		{Name: "Total", Kind: KindFloat},
	}}

	InvoiceLineSpec = TableSpec{Table: TableInvoiceLine, Columns: []ColumnSpec{
		{Name: "InvoiceLineId", Kind: KindInt},
		{Name: "InvoiceId", Kind: KindInt, Nullable: true},
		{Name: "TrackId", Kind: KindInt, Nullable: true},
		{Name: "UnitPrice", Kind: KindFloat},
		{Name: "Quantity", Kind: KindInt},
	}}

	TrackSpec = TableSpec{Table: TableTrack, Columns: []ColumnSpec{
		{Name: "TrackId", Kind: KindInt},
		{Name: "Name", Kind: KindString, Nullable: true},
		{Name: "AlbumId", Kind: KindInt, Nullable: true},
		{Name: "MediaTypeId", Kind: KindInt, Nullable: true},
		{Name: "GenreId", Kind: KindInt, Nullable: true},
		{Name: "UnitPrice", Kind: KindFloat},
		{Name: "Milliseconds", Kind: KindInt},
		{Name: "Composer", Kind: KindString, Nullable: true, Optional: true},
	}}

	AlbumSpec = TableSpec{Table: TableAlbum, Columns: []ColumnSpec{
		{Name: "AlbumId", Kind: KindInt},
		{Name: "Title", Kind: KindString, Nullable: true},
		{Name: "ArtistId", Kind: KindInt, Nullable: true},
	}}

	ArtistSpec = TableSpec{Table: TableArtist, Columns: []ColumnSpec{
		{Name: "ArtistId", Kind: KindInt},
		{Name: "Name", Kind: KindString, Nullable: true},
	}}

	GenreSpec = TableSpec{Table: TableGenre, Columns: []ColumnSpec{
		{Name: "GenreId", Kind: KindInt},
		{Name: "Name", Kind: KindString, Nullable: true},
	}}

	MediaTypeSpec = TableSpec{Table: TableMediaType, Columns: []ColumnSpec{
		{Name: "MediaTypeId", Kind: KindInt},
		{Name: "Name", Kind: KindString, Nullable: true},
	}}
)

// Binding is a TableSpec resolved against a concrete table
type Binding struct {
	*Table
	cols map[string]int
}

// Col returns the column index for name, or -1 for an absent optional column
func (b *Binding) Col(name string) int {
	i, ok := b.cols[name]
	if !ok {
		return -1
	}
	return i
}

// Bind checks that the table exists, that every required column is present
// with a compatible kind, and that non-nullable columns hold no nulls.
func (s TableSpec) Bind(ts Tables) (*Binding, error) {
	t, err := ts.Get(s.Table)
	if err != nil {
		return nil, err
	}

	b := &Binding{Table: t, cols: make(map[string]int, len(s.Columns))}
	for _, spec := range s.Columns {
		col, idx, ok := t.Column(spec.Name)
		if !ok {
			if spec.Optional {
				continue
			}
			return nil, &SchemaError{Table: s.Table, Column: spec.Name, Reason: "column missing"}
		}
		// a loader cannot infer the kind of a column without values
		if !kindSatisfies(spec.Kind, col.Kind) && !(spec.Nullable && t.allNull(idx)) {
			return nil, &SchemaError{
				Table:  s.Table,
				Column: spec.Name,
				Reason: fmt.Sprintf("column is %s, expected %s", col.Kind, spec.Kind),
			}
		}
		if !spec.Nullable {
			for r := 0; r < t.Len(); r++ {
				if t.Value(r, idx) == nil {
					return nil, &SchemaError{Table: s.Table, Column: spec.Name, Reason: fmt.Sprintf("null value in row %d", r)}
				}
			}
		}
		b.cols[spec.Name] = idx
	}
	return b, nil
}

// BindAll binds several specs, failing on the first problem in spec order
func BindAll(ts Tables, specs ...TableSpec) ([]*Binding, error) {
	out := make([]*Binding, 0, len(specs))
	for _, s := range specs {
		b, err := s.Bind(ts)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (t *Table) allNull(col int) bool {
	for r := range t.rows {
		if t.rows[r][col] != nil {
			return false
		}
	}
	return true
}

// A float requirement accepts integer columns.
func kindSatisfies(want, have Kind) bool {
	if want == have {
		return true
	}
	return want == KindFloat && have == KindInt
}
