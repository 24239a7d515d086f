package catalog

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const defaultProductLimit = 100

// Reader is the read side of the catalog consumed by the HTTP layer.
type Reader interface {
	ListCollections(ctx context.Context) ([]*Collection, error)
	GetCollection(ctx context.Context, slug string) (*Collection, error)
	ListProducts(ctx context.Context, opts ListOptions) ([]*Product, error)
	GetProduct(ctx context.Context, slug string) (*Product, error)
}

type ListOptions struct {
	Collection string
	Featured   bool
	Limit      int
}

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared between queries
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) RunMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ListCollections(ctx context.Context) ([]*Collection, error) {
	query := `
		SELECT slug, title, description, image, featured, sort_order, status
		FROM collections
		WHERE status = 'published'
		ORDER BY sort_order, slug
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var collections []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return collections, nil
}

// GetCollection returns the collection regardless of status.
func (r *Repository) GetCollection(ctx context.Context, slug string) (*Collection, error) {
	query := `
		SELECT slug, title, description, image, featured, sort_order, status
		FROM collections
		WHERE slug = ?
	`

	c, err := scanCollection(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListProducts returns published products, newest first.
func (r *Repository) ListProducts(ctx context.Context, opts ListOptions) ([]*Product, error) {
	query := `
		SELECT slug, title, description, collection_slug, images, sizes,
		       edition_type, edition_total, edition_sold, details, featured, sort_order, status
		FROM products
		WHERE status = 'published'
	`
	var args []any
	if opts.Collection != "" {
		query += ` AND collection_slug = ?`
		args = append(args, opts.Collection)
	}
	if opts.Featured {
		query += ` AND featured = 1`
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	query += ` ORDER BY created_at DESC, slug LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// GetProduct returns the product regardless of status.
func (r *Repository) GetProduct(ctx context.Context, slug string) (*Product, error) {
	query := `
		SELECT slug, title, description, collection_slug, images, sizes,
		       edition_type, edition_total, edition_sold, details, featured, sort_order, status
		FROM products
		WHERE slug = ?
	`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) SaveCollection(ctx context.Context, c *Collection) error {
	query := `
		INSERT INTO collections (slug, title, description, image, featured, sort_order, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image = excluded.image,
			featured = excluded.featured,
			sort_order = excluded.sort_order,
			status = excluded.status
	`

	status := c.Status
	if status == "" {
		status = StatusDraft
	}
	_, err := r.db.ExecContext(ctx, query, c.Slug, c.Title, c.Description, c.Image, c.Featured, c.Order, string(status))
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", c.Slug, err)
	}
	return nil
}

// SaveProduct inserts or updates a product. created_at is set on first insert only.
func (r *Repository) SaveProduct(ctx context.Context, p *Product) error {
	images, err := json.Marshal(nonNilStrings(p.Images))
	if err != nil {
		return fmt.Errorf("marshal images failed: %w", err)
	}
	sizes, err := json.Marshal(p.Sizes)
	if err != nil {
		return fmt.Errorf("marshal sizes failed: %w", err)
	}
	details, err := json.Marshal(nonNilStrings(p.Details))
	if err != nil {
		return fmt.Errorf("marshal details failed: %w", err)
	}

	status := p.Status
	if status == "" {
		status = StatusDraft
	}
	editionType := p.Edition.Type
	if editionType == "" {
		editionType = EditionLimited
	}

	query := `
		INSERT INTO products (slug, title, description, collection_slug, images, sizes,
			edition_type, edition_total, edition_sold, details, featured, sort_order, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			collection_slug = excluded.collection_slug,
			images = excluded.images,
			sizes = excluded.sizes,
			edition_type = excluded.edition_type,
			edition_total = excluded.edition_total,
			edition_sold = excluded.edition_sold,
			details = excluded.details,
			featured = excluded.featured,
			sort_order = excluded.sort_order,
			status = excluded.status
	`

	_, err = r.db.ExecContext(ctx, query,
		p.Slug, p.Title, p.Description, p.CollectionSlug, string(images), string(sizes),
		string(editionType), p.Edition.Total, p.Edition.Sold, string(details),
		p.Featured, p.Order, string(status), r.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", p.Slug, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCollection(row scanner) (*Collection, error) {
	c := &Collection{}
	var status string
	err := row.Scan(&c.Slug, &c.Title, &c.Description, &c.Image, &c.Featured, &c.Order, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	c.Status = Status(status)
	c.Image = ImageURL(c.Image)
	return c, nil
}

func scanProduct(row scanner) (*Product, error) {
	p := &Product{}
	var images, sizes, details, editionType, status string
	err := row.Scan(
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.CollectionSlug,
		&images,
		&sizes,
		&editionType,
		&p.Edition.Total,
		&p.Edition.Sold,
		&details,
		&p.Featured,
		&p.Order,
		&status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images for %s failed: %w", p.Slug, err)
	}
	if err := json.Unmarshal([]byte(sizes), &p.Sizes); err != nil {
		return nil, fmt.Errorf("unmarshal sizes for %s failed: %w", p.Slug, err)
	}
	if err := json.Unmarshal([]byte(details), &p.Details); err != nil {
		return nil, fmt.Errorf("unmarshal details for %s failed: %w", p.Slug, err)
	}
	for i := range p.Images {
		p.Images[i] = ImageURL(p.Images[i])
	}
	p.Edition.Type = EditionType(editionType)
	p.Status = Status(status)
	return p, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
