package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/meenmo/xvalib/curve"
)

// PGFeed loads a market snapshot from Postgres. The map-backed fixtures
// elsewhere in this module are development/testing stand-ins for this feed.
//
// Expected schema:
//
//	fx_spots(asof date, pair text, rate double precision)
//	index_fixings(asof date, name text, fixing double precision, day_count text)
//	discount_factors(asof date, ccy text, node date, df double precision)
//	credit_curves(asof date, counterparty text, node date,
//	              survival double precision, recovery double precision)
type PGFeed struct {
	db *sql.DB
}

// NewPGFeed wraps an open database handle.
func NewPGFeed(db *sql.DB) *PGFeed {
	return &PGFeed{db: db}
}

// Open connects using a lib/pq connection string and pings the server.
func Open(dsn string) (*PGFeed, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("marketdata: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("marketdata: ping postgres: %w", err)
	}
	return &PGFeed{db: db}, nil
}

// Close releases the underlying handle.
func (f *PGFeed) Close() error { return f.db.Close() }

// LoadMarket assembles the full snapshot for asof in the base currency.
func (f *PGFeed) LoadMarket(asof time.Time, baseCcy string) (*Market, error) {
	disc, err := f.loadDiscountCurve(asof, baseCcy)
	if err != nil {
		return nil, err
	}
	m := NewMarket(asof, baseCcy, disc)

	rows, err := f.db.Query(`SELECT pair, rate FROM fx_spots WHERE asof = $1`, asof)
	if err != nil {
		return nil, fmt.Errorf("marketdata: query fx_spots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pair string
		var rate float64
		if err := rows.Scan(&pair, &rate); err != nil {
			return nil, fmt.Errorf("marketdata: scan fx_spots: %w", err)
		}
		m.AddFXSpot(pair, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketdata: iterate fx_spots: %w", err)
	}

	if err := f.loadFixings(asof, m); err != nil {
		return nil, err
	}
	if err := f.loadCreditCurves(asof, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *PGFeed) loadDiscountCurve(asof time.Time, ccy string) (curve.Discount, error) {
	rows, err := f.db.Query(
		`SELECT node, df FROM discount_factors WHERE asof = $1 AND ccy = $2 ORDER BY node`, asof, ccy)
	if err != nil {
		return nil, fmt.Errorf("marketdata: query discount_factors: %w", err)
	}
	defer rows.Close()

	nodes := make(map[time.Time]float64)
	for rows.Next() {
		var node time.Time
		var df float64
		if err := rows.Scan(&node, &df); err != nil {
			return nil, fmt.Errorf("marketdata: scan discount_factors: %w", err)
		}
		nodes[node.UTC()] = df
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("marketdata: iterate discount_factors: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("marketdata: no discount factors for %s as of %s", ccy, asof.Format("2006-01-02"))
	}
	return curve.NewNodeCurve(asof, nodes)
}

func (f *PGFeed) loadFixings(asof time.Time, m *Market) error {
	rows, err := f.db.Query(
		`SELECT name, fixing, day_count FROM index_fixings WHERE asof = $1`, asof)
	if err != nil {
		return fmt.Errorf("marketdata: query index_fixings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, dayCount string
		var fixing float64
		if err := rows.Scan(&name, &fixing, &dayCount); err != nil {
			return fmt.Errorf("marketdata: scan index_fixings: %w", err)
		}
		m.AddIndexFixing(name, fixing, dayCount)
	}
	return rows.Err()
}

func (f *PGFeed) loadCreditCurves(asof time.Time, m *Market) error {
	rows, err := f.db.Query(
		`SELECT counterparty, node, survival, recovery
		   FROM credit_curves WHERE asof = $1 ORDER BY counterparty, node`, asof)
	if err != nil {
		return fmt.Errorf("marketdata: query credit_curves: %w", err)
	}
	defer rows.Close()

	type curveData struct {
		nodes    map[time.Time]float64
		recovery float64
	}
	byCpty := make(map[string]*curveData)
	for rows.Next() {
		var cpty string
		var node time.Time
		var survival, recovery float64
		if err := rows.Scan(&cpty, &node, &survival, &recovery); err != nil {
			return fmt.Errorf("marketdata: scan credit_curves: %w", err)
		}
		cd, ok := byCpty[cpty]
		if !ok {
			cd = &curveData{nodes: make(map[time.Time]float64)}
			byCpty[cpty] = cd
		}
		cd.nodes[node.UTC()] = survival
		cd.recovery = recovery
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("marketdata: iterate credit_curves: %w", err)
	}

	for cpty, cd := range byCpty {
		cc, err := curve.NewCreditCurve(asof, cd.nodes, cd.recovery)
		if err != nil {
			return fmt.Errorf("marketdata: credit curve for %s: %w", cpty, err)
		}
		m.AddCreditCurve(cpty, cc)
	}
	return nil
}
