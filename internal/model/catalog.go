package model

import (
	"github.com/franz/chinook-insights/internal/dataset"
	"github.com/shopspring/decimal"
)

// CatalogEntry is one track with its album, artist, genre and media type
type CatalogEntry struct {
	TrackID         int64
	TrackName       string
	Composer        string
	AlbumID         int64
	AlbumTitle      string
	ArtistID        int64
	ArtistName      string
	GenreID         int64
	GenreName       string
	MediaTypeID     int64
	MediaTypeName   string
	UnitPrice       decimal.Decimal
	Milliseconds    int64
	DurationMinutes float64
}

var catalogSpecs = []dataset.TableSpec{
	dataset.TrackSpec,
	dataset.AlbumSpec,
	dataset.ArtistSpec,
	dataset.GenreSpec,
	dataset.MediaTypeSpec,
}

// Catalog builds the track dimension: Track ⋈ Album ⋈ Artist ⋈ Genre ⋈
// MediaType, all inner joins. Rows keep the track table order.
func (m *Model) Catalog() ([]CatalogEntry, JoinStats, error) {
	bindings, err := dataset.BindAll(m.tables, catalogSpecs...)
	if err != nil {
		return nil, JoinStats{}, err
	}
	trackB, albumB, artistB, genreB, mediaB := bindings[0], bindings[1], bindings[2], bindings[3], bindings[4]

	tracks := make([]track, 0, trackB.Len())
	for row := 0; row < trackB.Len(); row++ {
		tracks = append(tracks, decodeTrack(trackB, row))
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
	mediaTypes, err := buildIndex(mediaB, "MediaTypeId", namedDecoder("MediaTypeId"))
	if err != nil {
		return nil, JoinStats{}, err
	}

	stats := newStats(len(tracks))
	j := &joiner{policy: m.policy, stats: &stats}
	entries := make([]CatalogEntry, 0, len(tracks))

	for _, tr := range tracks {
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
		media, ok, err := resolve(j, mediaTypes, tr.mediaType, dataset.TableTrack, "MediaTypeId", dataset.TableMediaType)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}

		entries = append(entries, CatalogEntry{
			TrackID:         tr.id,
			TrackName:       tr.name,
			Composer:        tr.composer,
			AlbumID:         alb.id,
			AlbumTitle:      alb.title,
			ArtistID:        art.id,
			ArtistName:      art.name,
			GenreID:         gen.id,
			GenreName:       gen.name,
			MediaTypeID:     media.id,
			MediaTypeName:   media.name,
			UnitPrice:       tr.unitPrice,
			Milliseconds:    tr.milliseconds,
			DurationMinutes: float64(tr.milliseconds) / 60000,
		})
	}

	stats.Output = len(entries)
	return entries, stats, nil
}
