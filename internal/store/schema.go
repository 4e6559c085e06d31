package store

// Schema v1 - Chinook tables plus import bookkeeping.
// Foreign keys are declared but not enforced so that dangling references in
// source data survive import and are handled by the join policy.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tables written by ImportTables, with their source row counts
CREATE TABLE IF NOT EXISTS imported_tables (
  name TEXT PRIMARY KEY,
  sql_name TEXT NOT NULL,
  row_count INTEGER NOT NULL,
  imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Column order and kind of every imported table
CREATE TABLE IF NOT EXISTS imported_columns (
  table_name TEXT NOT NULL REFERENCES imported_tables(name) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  column_name TEXT NOT NULL,
  kind TEXT NOT NULL,
  PRIMARY KEY (table_name, position)
);

CREATE TABLE IF NOT EXISTS Artist (
  ArtistId INTEGER PRIMARY KEY,
  Name NVARCHAR(120)
);

CREATE TABLE IF NOT EXISTS Album (
  AlbumId INTEGER PRIMARY KEY,
  Title NVARCHAR(160),
  ArtistId INTEGER REFERENCES Artist(ArtistId)
);

CREATE TABLE IF NOT EXISTS Genre (
  GenreId INTEGER PRIMARY KEY,
  Name NVARCHAR(120)
);

CREATE TABLE IF NOT EXISTS MediaType (
  MediaTypeId INTEGER PRIMARY KEY,
  Name NVARCHAR(120)
);

CREATE TABLE IF NOT EXISTS Track (
  TrackId INTEGER PRIMARY KEY,
  Name NVARCHAR(200),
  AlbumId INTEGER REFERENCES Album(AlbumId),
  MediaTypeId INTEGER REFERENCES MediaType(MediaTypeId),
  GenreId INTEGER REFERENCES Genre(GenreId),
  Composer NVARCHAR(220),
  Milliseconds INTEGER,
  Bytes INTEGER,
  UnitPrice NUMERIC(10,2)
);

CREATE TABLE IF NOT EXISTS Employee (
  EmployeeId INTEGER PRIMARY KEY,
  LastName NVARCHAR(20),
  FirstName NVARCHAR(20),
  Title NVARCHAR(30),
  ReportsTo INTEGER REFERENCES Employee(EmployeeId),
  BirthDate DATETIME,
  HireDate DATETIME,
  Address NVARCHAR(70),
  City NVARCHAR(40),
  State NVARCHAR(40),
  Country NVARCHAR(40),
  PostalCode NVARCHAR(10),
  Phone NVARCHAR(24),
  Fax NVARCHAR(24),
  Email NVARCHAR(60)
);

CREATE TABLE IF NOT EXISTS Customer (
  CustomerId INTEGER PRIMARY KEY,
  FirstName NVARCHAR(40),
  LastName NVARCHAR(20),
  Company NVARCHAR(80),
  Address NVARCHAR(70),
  City NVARCHAR(40),
  State NVARCHAR(40),
  Country NVARCHAR(40),
  PostalCode NVARCHAR(10),
  Phone NVARCHAR(24),
  Fax NVARCHAR(24),
  Email NVARCHAR(60),
  SupportRepId INTEGER REFERENCES Employee(EmployeeId)
);

CREATE TABLE IF NOT EXISTS Invoice (
  InvoiceId INTEGER PRIMARY KEY,
  CustomerId INTEGER REFERENCES Customer(CustomerId),
  InvoiceDate DATETIME,
  BillingAddress NVARCHAR(70),
  BillingCity NVARCHAR(40),
  BillingState NVARCHAR(40),
  BillingCountry NVARCHAR(40),
  BillingPostalCode NVARCHAR(10),
  Total NUMERIC(10,2)
);

CREATE TABLE IF NOT EXISTS InvoiceLine (
  InvoiceLineId INTEGER PRIMARY KEY,
  InvoiceId INTEGER REFERENCES Invoice(InvoiceId),
  TrackId INTEGER REFERENCES Track(TrackId),
  UnitPrice NUMERIC(10,2),
  Quantity INTEGER
);
`

// Schema v2 - Foreign key indexes used by the joins
const schemaV2 = `
CREATE INDEX IF NOT EXISTS IFK_AlbumArtistId ON Album(ArtistId);
CREATE INDEX IF NOT EXISTS IFK_TrackAlbumId ON Track(AlbumId);
CREATE INDEX IF NOT EXISTS IFK_TrackGenreId ON Track(GenreId);
CREATE INDEX IF NOT EXISTS IFK_TrackMediaTypeId ON Track(MediaTypeId);
CREATE INDEX IF NOT EXISTS IFK_CustomerSupportRepId ON Customer(SupportRepId);
CREATE INDEX IF NOT EXISTS IFK_InvoiceCustomerId ON Invoice(CustomerId);
CREATE INDEX IF NOT EXISTS IFK_InvoiceLineInvoiceId ON InvoiceLine(InvoiceId);
CREATE INDEX IF NOT EXISTS IFK_InvoiceLineTrackId ON InvoiceLine(TrackId);
`

// chinookTables maps normalized table names to their SQL names
var chinookTables = map[string]string{
	"artist":      "Artist",
	"album":       "Album",
	"genre":       "Genre",
	"mediatype":   "MediaType",
	"track":       "Track",
	"employee":    "Employee",
	"customer":    "Customer",
	"invoice":     "Invoice",
	"invoiceline": "InvoiceLine",
}

// bookkeeping tables never returned as data
var internalTables = map[string]bool{
	"schema_version":   true,
	"imported_tables":  true,
	"imported_columns": true,
}
