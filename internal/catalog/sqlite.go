// Package catalog: SQLite implementation of the Searcher interface.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/weboliver/collectsearch/internal/models"
)

// SQLiteCatalog implements Searcher over a local SQLite catalog database.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sets (
		name TEXT PRIMARY KEY,
		year INTEGER
	);

	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_name TEXT NOT NULL,
		variety TEXT,
		pokemon_number TEXT,
		set_name TEXT NOT NULL,
		FOREIGN KEY (set_name) REFERENCES sets(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_cards_set_name ON cards(set_name);
	CREATE INDEX IF NOT EXISTS idx_cards_name ON cards(name);

	CREATE TABLE IF NOT EXISTS set_products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		year INTEGER
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		set_name TEXT,
		category TEXT NOT NULL,
		available INTEGER NOT NULL DEFAULT 0,
		price REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_products_set_name ON products(set_name);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	`
	_, err := db.Exec(schema)
	return err
}

// escapeLike escapes LIKE wildcards in user input; queries use ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// likePattern builds a contains-match pattern for query; an empty query
// matches everything (wildcard browse).
func likePattern(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return "%"
	}
	return "%" + escapeLike(q) + "%"
}

// SearchSets returns sets whose name contains query. Sets referenced only by
// sealed products are reported with source "products".
func (c *SQLiteCatalog) SearchSets(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, year FROM sets
		 WHERE name LIKE ? ESCAPE '\'
		 ORDER BY name LIMIT ?`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("set search failed: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var name string
		var year sql.NullInt64
		if err := rows.Scan(&name, &year); err != nil {
			return nil, err
		}
		out = append(out, models.NewSet(models.SetSuggestion{
			SetName: name,
			Year:    int(year.Int64),
			Source:  "cards",
		}))
	}
	return out, rows.Err()
}

// SearchCards returns cards whose name contains query, optionally filtered
// to a set. Each card carries its parent set reference.
func (c *SQLiteCatalog) SearchCards(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error) {
	q := `SELECT c.id, c.name, c.base_name, c.variety, c.pokemon_number, c.set_name, COALESCE(s.year, 0)
	      FROM cards c LEFT JOIN sets s ON s.name = c.set_name
	      WHERE c.name LIKE ? ESCAPE '\'`
	args := []interface{}{likePattern(query)}
	if f.SetName != "" {
		q += ` AND c.set_name = ?`
		args = append(args, f.SetName)
	}
	q += ` ORDER BY c.name LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("card search failed: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var card models.CardSuggestion
		var variety, number sql.NullString
		if err := rows.Scan(&card.ID, &card.CardName, &card.BaseName, &variety, &number, &card.SetName, &card.SetYear); err != nil {
			return nil, err
		}
		card.Variety = variety.String
		card.PokemonNumber = number.String
		out = append(out, models.NewCard(card))
	}
	return out, rows.Err()
}

// SearchProducts returns products whose name contains query, optionally
// filtered to a set-product grouping or category.
func (c *SQLiteCatalog) SearchProducts(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error) {
	q := `SELECT id, name, COALESCE(set_name, ''), category, available, price
	      FROM products WHERE name LIKE ? ESCAPE '\'`
	args := []interface{}{likePattern(query)}
	if f.SetName != "" {
		q += ` AND set_name = ?`
		args = append(args, f.SetName)
	}
	if f.Category != "" {
		q += ` AND category = ?`
		args = append(args, f.Category)
	}
	q += ` ORDER BY name LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var p models.ProductSuggestion
		var available int
		if err := rows.Scan(&p.ID, &p.Name, &p.SetName, &p.Category, &available, &p.Price); err != nil {
			return nil, err
		}
		p.Available = available != 0
		out = append(out, models.NewProduct(p))
	}
	return out, rows.Err()
}

// SearchCategories returns product categories containing query, with their
// product counts derived from the products table.
func (c *SQLiteCatalog) SearchCategories(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM products
		 WHERE category LIKE ? ESCAPE '\'
		 GROUP BY category ORDER BY category LIMIT ?`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("category search failed: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var cat models.CategorySuggestion
		if err := rows.Scan(&cat.Category, &cat.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, models.NewCategory(cat))
	}
	return out, rows.Err()
}

// SearchSetProducts returns set-product groupings containing query, with
// product counts.
func (c *SQLiteCatalog) SearchSetProducts(ctx context.Context, query string, f Filters, limit int) ([]models.Suggestion, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT sp.id, sp.name, COALESCE(sp.year, 0),
		        (SELECT COUNT(*) FROM products p WHERE p.set_name = sp.name)
		 FROM set_products sp
		 WHERE sp.name LIKE ? ESCAPE '\'
		 ORDER BY sp.name LIMIT ?`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("set product search failed: %w", err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var sp models.SetProductSuggestion
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Year, &sp.ProductCount); err != nil {
			return nil, err
		}
		out = append(out, models.NewSetProduct(sp))
	}
	return out, rows.Err()
}

// AddSet upserts a set.
func (c *SQLiteCatalog) AddSet(ctx context.Context, name string, year int) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO sets (name, year) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET year = excluded.year`,
		name, year,
	)
	return err
}

// AddCard upserts a card.
func (c *SQLiteCatalog) AddCard(ctx context.Context, card models.CardSuggestion) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cards (id, name, base_name, variety, pokemon_number, set_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, base_name = excluded.base_name,
		   variety = excluded.variety, pokemon_number = excluded.pokemon_number,
		   set_name = excluded.set_name`,
		card.ID, card.CardName, card.BaseName, card.Variety, card.PokemonNumber, card.SetName,
	)
	return err
}

// AddSetProduct upserts a set-product grouping.
func (c *SQLiteCatalog) AddSetProduct(ctx context.Context, sp models.SetProductSuggestion) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO set_products (id, name, year) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, year = excluded.year`,
		sp.ID, sp.Name, sp.Year,
	)
	return err
}

// AddProduct upserts a product.
func (c *SQLiteCatalog) AddProduct(ctx context.Context, p models.ProductSuggestion) error {
	available := 0
	if p.Available {
		available = 1
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO products (id, name, set_name, category, available, price)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, set_name = excluded.set_name,
		   category = excluded.category, available = excluded.available,
		   price = excluded.price`,
		p.ID, p.Name, p.SetName, p.Category, available, p.Price,
	)
	return err
}

// Counts reports row counts per table, used by the status subcommand.
func (c *SQLiteCatalog) Counts(ctx context.Context) (sets, cards, products, setProducts int64, err error) {
	for _, q := range []struct {
		table string
		dst   *int64
	}{
		{"sets", &sets},
		{"cards", &cards},
		{"products", &products},
		{"set_products", &setProducts},
	} {
		if err = c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("count %s failed: %w", q.table, err)
		}
	}
	return sets, cards, products, setProducts, nil
}

// Close closes the underlying database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
