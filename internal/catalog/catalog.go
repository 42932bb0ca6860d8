// Package catalog is a SQLite backed item store that the browser pages
// through as the list reaches its end.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
)

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("catalog item not found")

type Item struct {
	ID        string `json:"id" yaml:"id"`
	Position  int64  `json:"position" yaml:"position"`
	Title     string `json:"title" yaml:"title"`
	Body      string `json:"body,omitempty" yaml:"body,omitempty"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

var titleStyle = lipgloss.NewStyle().Bold(true)

// Render implements list.Item. The title takes the first row and every
// body line one more.
func (i Item) Render(width int) string {
	lines := []string{titleStyle.Render(ansi.Truncate(i.Title, width, "…"))}
	if i.Body != "" {
		for _, l := range strings.Split(i.Body, "\n") {
			lines = append(lines, ansi.Truncate(l, width, "…"))
		}
	}
	return strings.Join(lines, "\n")
}

type Service interface {
	Create(ctx context.Context, title, body string) (Item, error)
	Get(ctx context.Context, id string) (Item, error)
	// List returns at most limit items ordered by position, starting at
	// offset.
	List(ctx context.Context, offset, limit int) ([]Item, error)
	Count(ctx context.Context) (int, error)
	// Seed appends n generated items and returns the new count.
	Seed(ctx context.Context, n int) (int, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type service struct {
	db *sql.DB
}

func NewService(db *sql.DB) Service {
	return &service{db: db}
}

const columns = "id, position, title, body, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Position, &item.Title, &item.Body, &item.CreatedAt)
	return item, err
}

func (s *service) Create(ctx context.Context, title, body string) (Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	item, err := insert(ctx, tx, title, body)
	if err != nil {
		return Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return Item{}, fmt.Errorf("failed to commit item: %w", err)
	}
	return item, nil
}

func insert(ctx context.Context, tx *sql.Tx, title, body string) (Item, error) {
	row := tx.QueryRowContext(ctx,
		`INSERT INTO items (id, position, title, body)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM items), ?, ?)
		RETURNING `+columns,
		uuid.New().String(), title, body,
	)
	item, err := scanItem(row)
	if err != nil {
		return Item{}, fmt.Errorf("failed to insert item: %w", err)
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, id string) (Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM items WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return item, nil
}

func (s *service) List(ctx context.Context, offset, limit int) ([]Item, error) {
	if offset < 0 || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM items ORDER BY position LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *service) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

func (s *service) Seed(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("invalid seed count: %d", n)
	}
	start, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range n {
		title, body := Generate(start + i)
		if _, err := insert(ctx, tx, title, body); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return start + n, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *service) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	return nil
}

var words = []string{
	"anchor", "buffer", "cursor", "delta", "extent", "frame", "gutter",
	"height", "index", "ledger", "margin", "offset", "prefix", "range",
	"scroll", "threshold", "viewport", "window",
}

// Generate returns the title and body of the seeded item at position n. Body
// line counts cycle from zero to three, so rows have varying heights.
func Generate(n int) (title, body string) {
	w := func(k int) string { return words[(n*7+k*3)%len(words)] }
	title = fmt.Sprintf("#%d %s %s", n+1, w(0), w(1))
	lines := make([]string, n%4)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s %s %s", w(i+2), w(i+3), w(i+4))
	}
	return title, strings.Join(lines, "\n")
}
