package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/vlist/internal/db"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := db.Connect(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewService(conn)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	first, err := svc.Create(ctx, "first", "body")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, int64(0), first.Position)

	second, err := svc.Create(ctx, "second", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Position)

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	require.NoError(t, svc.Delete(ctx, second.ID))
	_, err = svc.Get(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, second.ID), ErrNotFound)
}

func TestCatalogPaging(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	total, err := svc.Seed(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	page, err := svc.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	title, _ := Generate(0)
	assert.Equal(t, title, page[0].Title)

	page, err = svc.List(ctx, 20, 10)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, int64(24), page[4].Position)

	page, err = svc.List(ctx, 25, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	total, err = svc.Seed(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 30, total)
	page, err = svc.List(ctx, 25, 10)
	require.NoError(t, err)
	require.Len(t, page, 5)
	title, _ = Generate(25)
	assert.Equal(t, title, page[0].Title)

	require.NoError(t, svc.Clear(ctx))
	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	for n := range 8 {
		title, body := Generate(n)
		assert.True(t, strings.HasPrefix(title, "#"), title)
		if n%4 == 0 {
			assert.Empty(t, body)
		} else {
			assert.Len(t, strings.Split(body, "\n"), n%4)
		}
	}
}

func TestItemRender(t *testing.T) {
	t.Parallel()

	item := Item{Title: "a long title here", Body: "one\ntwo"}
	view := ansi.Strip(item.Render(8))
	assert.Equal(t, "a long …\none\ntwo", view)

	assert.Equal(t, "title", ansi.Strip(Item{Title: "title"}.Render(20)))
}
