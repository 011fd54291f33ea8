package ingest

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/agromaps/fieldview/internal/crs"
	"github.com/agromaps/fieldview/internal/service"
)

// featureTable is one row of gpkg_contents joined with its geometry
// column registration.
type featureTable struct {
	name       string
	identifier string
	geomColumn string
	srsID      int
}

// geoPackage opens a GeoPackage (a SQLite container) read-only,
// enumerates its feature tables and produces one layer per non-empty
// table.
func (ing *Ingestor) geoPackage(path, base string) ([]*service.Layer, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", base, err)
	}
	defer db.Close()

	tables, err := listFeatureTables(db)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", base, err)
	}

	var layers []*service.Layer
	for _, t := range tables {
		fc, err := ing.readTable(db, t)
		if err != nil {
			return nil, fmt.Errorf("%s table %q: %w", base, t.name, err)
		}
		if len(fc.Features) == 0 {
			continue
		}

		name := base
		if len(tables) > 1 {
			name = fmt.Sprintf("%s/%s", base, t.identifier)
		}
		layer, err := service.NewVectorLayer(name, fc)
		if err != nil {
			return nil, fmt.Errorf("%s table %q: %w", base, t.name, err)
		}
		layer.Color = "#3388ff"
		layers = append(layers, layer)

		ing.log.Info("geopackage table ingested",
			zap.String("file", base),
			zap.String("table", t.name),
			zap.Int("features", len(fc.Features)))
	}

	if len(layers) == 0 {
		return nil, fmt.Errorf("%s: %w", base, ErrNoFeatures)
	}
	return layers, nil
}

func listFeatureTables(db *sql.DB) ([]featureTable, error) {
	rows, err := db.Query(`
		SELECT c.table_name, c.identifier, g.column_name, g.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []featureTable
	for rows.Next() {
		var t featureTable
		if err := rows.Scan(&t.name, &t.identifier, &t.geomColumn, &t.srsID); err != nil {
			return nil, err
		}
		if t.identifier == "" {
			t.identifier = t.name
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// quoteIdent quotes a SQL identifier, doubling embedded quotes. Table
// names arrive from the uploaded container and cannot be trusted.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// readTable reads every row of a feature table into a feature
// collection, decoding the GeoPackage geometry blobs and carrying the
// remaining columns as properties.
func (ing *Ingestor) readTable(db *sql.DB, t featureTable) (*geojson.FeatureCollection, error) {
	rows, err := db.Query(`SELECT * FROM ` + quoteIdent(t.name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	proj := projectionFor(t.srsID)
	if t.srsID != 0 && t.srsID != crs.EPSGWGS84 && proj == nil {
		ing.log.Warn("unsupported GeoPackage SRS, keeping native coordinates",
			zap.String("table", t.name),
			zap.Int("srs", t.srsID))
	}

	fc := geojson.NewFeatureCollection()
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		var geom orb.Geometry
		props := geojson.Properties{}
		for i, col := range cols {
			if col == t.geomColumn {
				blob, ok := values[i].([]byte)
				if !ok || len(blob) == 0 {
					continue
				}
				g, err := decodeGeometryBlob(blob)
				if err != nil {
					return nil, err
				}
				geom = g
				continue
			}
			if v := propertyValue(values[i]); v != nil {
				props[col] = v
			}
		}
		if geom == nil {
			continue
		}
		if proj != nil {
			geom = project.Geometry(geom, func(p orb.Point) orb.Point {
				lon, lat := proj.ToWGS84(p[0], p[1])
				return orb.Point{lon, lat}
			})
		}

		f := geojson.NewFeature(geom)
		f.Properties = props
		fc.Append(f)
	}
	return fc, rows.Err()
}

// propertyValue maps a scanned SQLite value to a JSON-friendly
// property value.
func propertyValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	default:
		return x
	}
}

// projectionFor returns a projection to WGS84 for a GeoPackage srs_id,
// or nil when the data is already geographic or the SRS is unknown.
func projectionFor(srsID int) crs.Projection {
	if srsID == 0 || srsID == crs.EPSGWGS84 {
		return nil
	}
	return crs.ForEPSG(srsID)
}

// decodeGeometryBlob strips the GeoPackage binary header (magic "GP",
// version, flags, srs_id, optional envelope) and decodes the WKB body.
func decodeGeometryBlob(blob []byte) (orb.Geometry, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("not a GeoPackage geometry blob")
	}
	flags := blob[3]
	if flags&0x20 != 0 {
		return nil, fmt.Errorf("empty geometry")
	}

	// Envelope contents indicator (flag bits 1-3) determines how many
	// doubles follow the 8-byte header.
	var envelopeSize int
	switch (flags >> 1) & 0x07 {
	case 0:
		envelopeSize = 0
	case 1:
		envelopeSize = 32
	case 2, 3:
		envelopeSize = 48
	case 4:
		envelopeSize = 64
	default:
		return nil, fmt.Errorf("invalid envelope indicator in flags %#x", flags)
	}

	body := 8 + envelopeSize
	if len(blob) < body {
		return nil, fmt.Errorf("geometry blob shorter than its envelope")
	}
	return wkb.Unmarshal(blob[body:])
}
