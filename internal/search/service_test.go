package search_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/search"
	"github.com/Kyz7/formbuilder/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	db := testutils.TestDB(t)
	for i := 1; i <= 12; i++ {
		testutils.CreateTestUser(t, db, fmt.Sprintf("member%02d!", i), fmt.Sprintf("member%02d@example.com", i), "", models.RoleStandard)
	}
	testutils.CreateTestUser(t, db, "zed_other", "zed@other.org", "", models.RoleStandard)

	t.Run("Success - Defaults and total", func(t *testing.T) {
		query := db.Model(&models.User{})
		res, err := search.Paginate[models.User](query, search.Params{})
		require.NoError(t, err)
		assert.Equal(t, int64(13), res.Total)
		assert.Equal(t, 1, res.Page)
		assert.Len(t, res.Items, search.DefaultLimit)
	})

	t.Run("Success - Second page", func(t *testing.T) {
		query := search.ApplyOrdering(db.Model(&models.User{}), "username", []string{"username"}, "id")
		res, err := search.Paginate[models.User](query, search.Params{Page: 2, Limit: 5})
		require.NoError(t, err)
		require.Len(t, res.Items, 5)
		assert.Equal(t, "member06!", res.Items[0].Username)
	})

	t.Run("Success - Search across columns", func(t *testing.T) {
		query := search.ApplySearch(db.Model(&models.User{}), "OTHER", "username", "email")
		res, err := search.Paginate[models.User](query, search.Params{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
		assert.Equal(t, search.MaxLimit, res.Limit)
	})

	t.Run("Success - Descending ordering", func(t *testing.T) {
		query := search.ApplyOrdering(db.Model(&models.User{}), "-username", []string{"username"}, "id")
		res, err := search.Paginate[models.User](query, search.Params{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, "zed_other", res.Items[0].Username)
	})

	t.Run("Success - Huge page is empty, not the first page", func(t *testing.T) {
		query := search.ApplyOrdering(db.Model(&models.User{}), "username", []string{"username"}, "id")
		res, err := search.Paginate[models.User](query, search.Params{Page: math.MaxInt, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(13), res.Total)
		assert.Equal(t, search.MaxPage, res.Page)
		assert.Empty(t, res.Items)

		p := search.Params{Page: search.MaxPage, Limit: search.MaxLimit}
		assert.Greater(t, p.Offset(), 0)
	})

	t.Run("Success - Unknown ordering falls back", func(t *testing.T) {
		query := search.ApplyOrdering(db.Model(&models.User{}), "password", []string{"username"}, "id desc")
		res, err := search.Paginate[models.User](query, search.Params{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, "zed_other", res.Items[0].Username)
	})
}
