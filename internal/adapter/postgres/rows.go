package postgres

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/hydrograph-etl/internal/domain"
	"github.com/jackc/pgx/v5"
)

type floodplain struct {
	Name string
	Type domain.FloodplainType
}

type metadataRow struct {
	Volume       *int64
	Peak         float64
	TableName    string
	FloodplainID int64
}

// distinctFloodplains returns each floodplain once, in first-seen order.
func distinctFloodplains(hs []domain.Hydrograph) []floodplain {
	seen := make(map[floodplain]bool, len(hs))
	out := make([]floodplain, 0, len(hs))
	for _, h := range hs {
		fp := floodplain{Name: h.Floodplain, Type: h.Type}
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, fp)
	}
	return out
}

func metadataRows(hs []domain.Hydrograph, ids map[string]int64) ([]metadataRow, error) {
	rows := make([]metadataRow, 0, len(hs))
	for _, h := range hs {
		id, ok := ids[h.Floodplain]
		if !ok {
			return nil, fmt.Errorf("floodplain %q has no id", h.Floodplain)
		}
		rows = append(rows, metadataRow{
			Volume:       h.Volume,
			Peak:         h.Peak,
			TableName:    h.TableName,
			FloodplainID: id,
		})
	}
	return rows, nil
}

// identifier quotes a possibly schema-qualified table name.
func identifier(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

func insertFloodplainSQL(table string) string {
	t := identifier(table)
	return `INSERT INTO ` + t + ` (floodplain_name, floodplain_type)
SELECT $1::text, $2::text
WHERE NOT EXISTS (SELECT 1 FROM ` + t + ` WHERE floodplain_name = $1::text)`
}

func selectFloodplainsSQL(table string) string {
	return `SELECT id, floodplain_name FROM ` + identifier(table) + ` ORDER BY id`
}

func truncateSQL(table string) string {
	return `TRUNCATE ` + identifier(table) + ` RESTART IDENTITY`
}

func insertMetadataSQL(table string) string {
	return `INSERT INTO ` + identifier(table) + ` (qvol, qmax, shapefile_tablename, floodplain_id)
VALUES ($1, $2, $3, $4)`
}
