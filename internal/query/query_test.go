package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/testutil"
)

func dryRunSQL(t *testing.T, db *gorm.DB, spec Spec) string {
	t.Helper()
	var out []model.Video
	stmt := spec.Apply(db.Session(&gorm.Session{DryRun: true}).Model(&model.Video{})).Find(&out).Statement
	return stmt.SQL.String()
}

func TestSpec_BuildersDoNotAlias(t *testing.T) {
	base := New("videos").Where(Eq("is_published", true))
	a := base.Where(Eq("owner_id", "u1"))
	b := base.Where(Contains("title", "go"))

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, "owner_id", a.Filters[1].Column)
	assert.Equal(t, "title", b.Filters[1].Column)
}

func TestSpec_CompilesStages(t *testing.T) {
	db := testutil.NewDB(t)
	spec := New("videos").
		Where(Eq("is_published", true), Contains("title", "50%_off")).
		With(OwnerJoin()).
		OrderBy("created_at", true)

	sql := dryRunSQL(t, db, spec)
	assert.Contains(t, sql, "is_published = ?")
	assert.Contains(t, sql, "LOWER(title) LIKE ?")
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Equal(t, "Owner", spec.Joins[0].Association)
	assert.ElementsMatch(t, model.OwnerProfileColumns, spec.Joins[0].Columns)
}

func TestSpec_EmptyContainsIsSkipped(t *testing.T) {
	db := testutil.NewDB(t)
	sql := dryRunSQL(t, db, New("videos").Where(Contains("title", "  ")))
	assert.NotContains(t, sql, "LIKE")
}

func TestSpec_InnerJoinQualifiesColumns(t *testing.T) {
	db := testutil.NewDB(t)
	spec := New("videos").
		JoinInner("JOIN likes ON likes.target_id = videos.id AND likes.liked_by = ?", "u1").
		Where(Eq("is_published", true)).
		OrderBy("likes.created_at", true)

	sql := dryRunSQL(t, db, spec)
	assert.Contains(t, sql, "videos.*")
	assert.Contains(t, sql, "videos.is_published = ?")
	assert.Contains(t, sql, "ORDER BY likes.created_at DESC")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off`, escapeLike("50%_off"))
}

func TestNewPage_Meta(t *testing.T) {
	p := NewPage([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 15, PageRequest{Page: 1, Limit: 10})
	assert.Equal(t, 2, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)

	empty := NewPage[int](nil, 0, PageRequest{})
	assert.NotNil(t, empty.Docs)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.Equal(t, DefaultLimit, empty.Limit)
}

func TestPageRequest_Normalize(t *testing.T) {
	r := PageRequest{Page: -3, Limit: 1000}.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, MaxLimit, r.Limit)
	assert.Equal(t, 0, r.Offset())
}

func TestPaginate_FifteenItems(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.SeedUser(t, db, "alice")
	for i := 0; i < 15; i++ {
		testutil.SeedVideo(t, db, owner.ID, fmt.Sprintf("clip-%02d", i), true)
	}
	spec := New("videos").Where(Eq("owner_id", owner.ID)).With(OwnerJoin()).OrderBy("title", false)

	p1, err := Paginate[model.Video](testutil.Ctx(), db, spec, PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, p1.Docs, 10)
	assert.True(t, p1.HasNextPage)
	assert.EqualValues(t, 15, p1.TotalDocs)
	require.NotNil(t, p1.Docs[0].Owner)
	assert.Equal(t, "alice", p1.Docs[0].Owner.Username)
	assert.Equal(t, "clip-00", p1.Docs[0].Title)

	p2, err := Paginate[model.Video](testutil.Ctx(), db, spec, PageRequest{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, p2.Docs, 5)
	assert.False(t, p2.HasNextPage)
	assert.True(t, p2.HasPrevPage)
}

func TestPaginate_EmptyIsSuccessfulPage(t *testing.T) {
	db := testutil.NewDB(t)
	p, err := Paginate[model.Video](testutil.Ctx(), db, New("videos").Where(Eq("owner_id", "nobody")), PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, p.Docs)
	assert.EqualValues(t, 0, p.TotalDocs)
}

func TestPaginate_DanglingOwnerLeavesNil(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedVideo(t, db, "ghost-owner", "orphan", true)

	p, err := Paginate[model.Video](testutil.Ctx(), db, New("videos").With(OwnerJoin()), PageRequest{})
	require.NoError(t, err)
	require.Len(t, p.Docs, 1)
	assert.Nil(t, p.Docs[0].Owner)
}
