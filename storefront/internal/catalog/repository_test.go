package catalog_test

import (
	"context"
	"testing"

	"github.com/sheldonroth/sheldonroth/storefront/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *catalog.Repository {
	// Use in-memory database for tests
	repo, err := catalog.NewRepository(":memory:")
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { repo.Close() })

	return repo
}

func seed(t *testing.T, repo *catalog.Repository) {
	t.Helper()
	ctx := context.Background()

	for _, c := range []*catalog.Collection{
		{Slug: "wildlife", Title: "Wildlife", Description: "Animals", Image: "wildlife.jpg", Order: 2, Status: catalog.StatusPublished},
		{Slug: "landscapes", Title: "Landscapes", Description: "Land", Image: "https://cdn.example.com/l.jpg", Order: 1, Status: catalog.StatusPublished},
		{Slug: "secret", Title: "Secret", Order: 0, Status: catalog.StatusDraft},
	} {
		require.NoError(t, repo.SaveCollection(ctx, c))
	}

	for _, p := range []*catalog.Product{
		{
			Slug: "gemsbok-in-the-mist", Title: "Gemsbok in the Mist", Description: "Mist", CollectionSlug: "wildlife",
			Images:  []string{"gemsbok.jpg", "/media/gemsbok-2.jpg"},
			Sizes:   []catalog.Size{{Name: "Medium", Dimensions: `40" x 30"`, Price: 2500}, {Name: "Large", Dimensions: `60" x 45"`, Price: 4500}},
			Edition: catalog.Edition{Type: catalog.EditionLimited, Total: 150, Sold: 47},
			Details: []string{"Hand-signed certificate of authenticity"}, Featured: true, Status: catalog.StatusPublished,
		},
		{
			Slug: "reflection-pool", Title: "Reflection Pool", CollectionSlug: "landscapes",
			Sizes:  []catalog.Size{{Name: "Medium", Dimensions: `48" x 32"`, Price: 3200}},
			Status: catalog.StatusPublished,
		},
		{
			Slug: "unfinished", Title: "Unfinished", CollectionSlug: "landscapes", Status: catalog.StatusDraft,
		},
		{
			Slug: "elephant-portrait", Title: "Elephant Portrait", CollectionSlug: "wildlife",
			Sizes:  []catalog.Size{{Name: "Large", Dimensions: `60" x 45"`, Price: 5500}},
			Status: catalog.StatusPublished,
		},
	} {
		require.NoError(t, repo.SaveProduct(ctx, p))
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.RunMigrations())
}

func TestListCollections_PublishedInOrder(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo)

	collections, err := repo.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "landscapes", collections[0].Slug)
	assert.Equal(t, "wildlife", collections[1].Slug)
	assert.Equal(t, "/media/wildlife.jpg", collections[1].Image)
	assert.Equal(t, "https://cdn.example.com/l.jpg", collections[0].Image)
}

func TestGetCollection(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo)

	c, err := repo.GetCollection(context.Background(), "wildlife")
	require.NoError(t, err)
	assert.Equal(t, "Wildlife", c.Title)

	_, err = repo.GetCollection(context.Background(), "nope")
	assert.ErrorIs(t, err, catalog.ErrCollectionNotFound)
}

func TestGetProduct_DecodesNestedFields(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo)

	p, err := repo.GetProduct(context.Background(), "gemsbok-in-the-mist")
	require.NoError(t, err)
	assert.Equal(t, "Gemsbok in the Mist", p.Title)
	assert.Equal(t, "wildlife", p.CollectionSlug)
	assert.Equal(t, []string{"/media/gemsbok.jpg", "/media/gemsbok-2.jpg"}, p.Images)
	require.Len(t, p.Sizes, 2)
	assert.Equal(t, int64(4500), p.Sizes[1].Price)
	assert.Equal(t, catalog.Edition{Type: catalog.EditionLimited, Total: 150, Sold: 47}, p.Edition)
	assert.Equal(t, []string{"Hand-signed certificate of authenticity"}, p.Details)
	assert.True(t, p.Featured)
	assert.Equal(t, catalog.StatusPublished, p.Status)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	p, err := repo.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Nil(t, p)
}

func TestListProducts_Filters(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo)
	ctx := context.Background()

	all, err := repo.ListProducts(ctx, catalog.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "drafts are excluded")
	assert.Equal(t, "elephant-portrait", all[0].Slug, "newest first")

	wildlife, err := repo.ListProducts(ctx, catalog.ListOptions{Collection: "wildlife"})
	require.NoError(t, err)
	assert.Len(t, wildlife, 2)

	featured, err := repo.ListProducts(ctx, catalog.ListOptions{Featured: true})
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "gemsbok-in-the-mist", featured[0].Slug)

	limited, err := repo.ListProducts(ctx, catalog.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveProduct_UpdatesExisting(t *testing.T) {
	repo := setupTestDB(t)
	seed(t, repo)
	ctx := context.Background()

	p, err := repo.GetProduct(ctx, "reflection-pool")
	require.NoError(t, err)
	p.Sizes[0].Price = 3400
	p.Status = catalog.StatusSoldOut
	require.NoError(t, repo.SaveProduct(ctx, p))

	updated, err := repo.GetProduct(ctx, "reflection-pool")
	require.NoError(t, err)
	assert.Equal(t, int64(3400), updated.Sizes[0].Price)
	assert.Equal(t, catalog.StatusSoldOut, updated.Status)
}

func TestListProducts_CanceledContext(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListProducts(ctx, catalog.ListOptions{})
	assert.Error(t, err)
}
