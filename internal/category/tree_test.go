// Package category_test tests tree construction and traversal.
package category_test

import (
	"testing"

	"github.com/stepwork/stepbot/internal/category"
	"github.com/stepwork/stepbot/internal/database"
)

// programOutline builds a small realistic taxonomy:
//
//	1 Шаг 1
//	  2 Глава 1.1
//	    3 Точка 1.1.1
//	    4 Точка 1.1.2
//	  5 Глава 1.2 (no points)
//	  6 Глава 1.3
//	    7 Точка 1.3.1
//	8 Шаг 2
//	  9 Глава 2.1
//	    10 Точка 2.1.1
func programOutline() []database.Category {
	return []database.Category{
		{ID: 1, Name: "Шаг 1"},
		{ID: 2, Name: "Глава 1.1", ParentID: 1},
		{ID: 3, Name: "Точка 1.1.1", ParentID: 2},
		{ID: 4, Name: "Точка 1.1.2", ParentID: 2},
		{ID: 5, Name: "Глава 1.2", ParentID: 1},
		{ID: 6, Name: "Глава 1.3", ParentID: 1},
		{ID: 7, Name: "Точка 1.3.1", ParentID: 6},
		{ID: 8, Name: "Шаг 2"},
		{ID: 9, Name: "Глава 2.1", ParentID: 8},
		{ID: 10, Name: "Точка 2.1.1", ParentID: 9},
	}
}

func TestBuildTreeDepths(t *testing.T) {
	t.Parallel()

	tree := category.BuildTree(programOutline())

	wantDepths := map[int64]int{
		1: 0, 2: 1, 3: 2, 4: 2, 5: 1, 6: 1, 7: 2, 8: 0, 9: 1, 10: 2,
	}
	for id, want := range wantDepths {
		n := tree.Get(id)
		if n == nil {
			t.Fatalf("node %d missing from tree", id)
		}
		if n.Depth != want {
			t.Errorf("node %d: depth = %d, want %d", id, n.Depth, want)
		}
	}

	roots := tree.Roots()
	if len(roots) != 2 || roots[0].ID != 1 || roots[1].ID != 8 {
		t.Errorf("unexpected roots: %+v", roots)
	}
}

func TestBuildTreeOrphanBecomesRoot(t *testing.T) {
	t.Parallel()

	tree := category.BuildTree([]database.Category{
		{ID: 1, Name: "Шаг 1"},
		{ID: 2, Name: "Глава", ParentID: 1},
		{ID: 50, Name: "Сирота", ParentID: 999},
		{ID: 51, Name: "Точка сироты", ParentID: 50},
	})

	roots := tree.Roots()
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if roots[1].ID != 50 {
		t.Errorf("orphan not rooted: roots = %+v", roots)
	}
	if got := tree.Get(51); got == nil || got.Depth != 1 {
		t.Errorf("orphan child depth = %+v, want depth 1", got)
	}
}

func TestTreePath(t *testing.T) {
	t.Parallel()

	tree := category.BuildTree(programOutline())

	path := tree.Path(3)
	if len(path) != 3 {
		t.Fatalf("got path of %d nodes, want 3", len(path))
	}
	for i, wantID := range []int64{1, 2, 3} {
		if path[i].ID != wantID {
			t.Errorf("path[%d].ID = %d, want %d", i, path[i].ID, wantID)
		}
	}

	if got := tree.Path(999); got != nil {
		t.Errorf("path of unknown id = %+v, want nil", got)
	}
}

func TestTreeDescendants(t *testing.T) {
	t.Parallel()

	tree := category.BuildTree(programOutline())

	got := tree.Descendants(1)
	want := []int64{1, 2, 3, 4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("descendants of 1 = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("descendants of 1 = %v, want %v", got, want)
		}
	}

	if got := tree.Descendants(3); len(got) != 1 || got[0] != 3 {
		t.Errorf("descendants of leaf = %v, want [3]", got)
	}
}

func TestNextPoint(t *testing.T) {
	t.Parallel()

	tree := category.BuildTree(programOutline())

	tests := []struct {
		name   string
		id     int64
		wantID int64
	}{
		{name: "next sibling in same chapter", id: 3, wantID: 4},
		{name: "skips empty chapter to next with points", id: 4, wantID: 7},
		{name: "last point of last chapter", id: 7, wantID: 0},
		{name: "single point in other step", id: 10, wantID: 0},
		{name: "chapter is not a point", id: 2, wantID: 0},
		{name: "step is not a point", id: 1, wantID: 0},
		{name: "unknown id", id: 999, wantID: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := tree.NextPoint(tc.id)
			if tc.wantID == 0 {
				if got != nil {
					t.Errorf("NextPoint(%d) = %+v, want nil", tc.id, got)
				}
				return
			}
			if got == nil || got.ID != tc.wantID {
				t.Errorf("NextPoint(%d) = %+v, want id %d", tc.id, got, tc.wantID)
			}
		})
	}
}

func TestLevelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		depth int
		c     category.GrammaticalCase
		want  string
	}{
		{0, category.CaseNominative, "Шаг"},
		{0, category.CaseGenitive, "Шага"},
		{1, category.CaseNominative, "Глава"},
		{1, category.CaseAccusative, "Главу"},
		{2, category.CaseNominative, "Точка"},
		{2, category.CaseDative, "Точке"},
		{3, category.CaseNominative, "Категория"},
		{7, category.CaseAccusative, "Категорию"},
		{-1, category.CaseNominative, "Категория"},
	}

	for _, tc := range tests {
		if got := category.LevelName(tc.depth, tc.c); got != tc.want {
			t.Errorf("LevelName(%d, %d) = %q, want %q", tc.depth, tc.c, got, tc.want)
		}
	}
}
