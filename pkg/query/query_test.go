package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/strongbox/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "files", "f").
		Project("id", "id").
		Project("name", "name").
		Project("create_date", "createDate")
}

func TestProjectionMapFrom(t *testing.T) {
	p := testProjection()
	got := p.From()
	want := "public.files f"
	if got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
}

func TestProjectionMapAlias(t *testing.T) {
	p := testProjection()
	if got := p.Alias(); got != "f" {
		t.Errorf("Alias() = %q, want %q", got, "f")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	p := testProjection()
	got := p.Columns()
	want := "f.id, f.name, f.create_date"
	if got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "name", "f.name"},
		{"mapped camel", "createDate", "f.create_date"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *query.Builder) (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "bare select",
			build:   (*query.Builder).Build,
			wantSQL: "SELECT f.id, f.name, f.create_date FROM public.files f",
		},
		{
			name:    "count",
			build:   (*query.Builder).BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.files f",
		},
		{
			name: "single",
			build: func(b *query.Builder) (string, []any) {
				return b.BuildSingle("id", "abc-123")
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.id = $1",
			wantArgs: []any{"abc-123"},
		},
		{
			name: "single for update",
			build: func(b *query.Builder) (string, []any) {
				return b.ForUpdate().BuildSingle("id", "abc-123")
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.id = $1 FOR UPDATE",
			wantArgs: []any{"abc-123"},
		},
		{
			name: "equals",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("name", "test.pdf").Build()
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.name = $1",
			wantArgs: []any{"test.pdf"},
		},
		{
			name: "equals nil skipped",
			build: func(b *query.Builder) (string, []any) {
				var s *string
				return b.WhereEquals("name", s).Build()
			},
			wantSQL: "SELECT f.id, f.name, f.create_date FROM public.files f",
		},
		{
			name: "in",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereIn("id", []any{"a", "b", "c"}).Build()
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.id IN ($1, $2, $3)",
			wantArgs: []any{"a", "b", "c"},
		},
		{
			name: "in empty skipped",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereIn("id", []any{}).Build()
			},
			wantSQL: "SELECT f.id, f.name, f.create_date FROM public.files f",
		},
		{
			name: "nullable nil",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereNullable("name", nil).Build()
			},
			wantSQL: "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.name IS NULL",
		},
		{
			name: "nullable value",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereNullable("name", "x").Build()
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.name = $1",
			wantArgs: []any{"x"},
		},
		{
			name: "null and not null",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereNull("name", true).WhereNull("id", false).Build()
			},
			wantSQL: "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.name IS NULL AND f.id IS NOT NULL",
		},
		{
			name: "parameters numbered across conditions",
			build: func(b *query.Builder) (string, []any) {
				return b.
					WhereEquals("name", "a.pdf").
					WhereNull("createDate", false).
					WhereIn("id", []any{"x", "y"}).
					Build()
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.name = $1 AND f.create_date IS NOT NULL AND f.id IN ($2, $3)",
			wantArgs: []any{"a.pdf", "x", "y"},
		},
		{
			name: "order overrides default",
			build: func(b *query.Builder) (string, []any) {
				return b.OrderByFields(
					query.SortField{Field: "createDate", Descending: true},
					query.SortField{Field: "name"},
				).Build()
			},
			wantSQL: "SELECT f.id, f.name, f.create_date FROM public.files f ORDER BY f.create_date DESC, f.name ASC",
		},
		{
			name: "lock follows order",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("id", "a").
					OrderByFields(query.SortField{Field: "name"}).
					ForUpdate().
					Build()
			},
			wantSQL:  "SELECT f.id, f.name, f.create_date FROM public.files f WHERE f.id = $1 ORDER BY f.name ASC FOR UPDATE",
			wantArgs: []any{"a"},
		},
		{
			name: "count ignores order and lock",
			build: func(b *query.Builder) (string, []any) {
				return b.WhereEquals("name", "a").
					OrderByFields(query.SortField{Field: "name"}).
					ForUpdate().
					BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.files f WHERE f.name = $1",
			wantArgs: []any{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build(query.NewBuilder(testProjection()))
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilderDefaultSort(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "createDate", Descending: true})
	sql, _ := b.Build()

	want := "SELECT f.id, f.name, f.create_date FROM public.files f ORDER BY f.create_date DESC"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestSoftDelete(t *testing.T) {
	live := func() *query.ProjectionMap {
		return query.NewProjectionMap("public", "documents", "d").
			Project("id", "ID").
			Project("title", "Title").
			SoftDelete("deleted_at")
	}

	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "select without conditions",
			build:   query.NewBuilder(live()).Build,
			wantSQL: "SELECT d.id, d.title FROM public.documents d WHERE d.deleted_at IS NULL",
		},
		{
			name:     "select with conditions",
			build:    query.NewBuilder(live()).WhereEquals("Title", "Q3").Build,
			wantSQL:  "SELECT d.id, d.title FROM public.documents d WHERE d.title = $1 AND d.deleted_at IS NULL",
			wantArgs: []any{"Q3"},
		},
		{
			name:    "count",
			build:   query.NewBuilder(live()).BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.documents d WHERE d.deleted_at IS NULL",
		},
		{
			name: "single locked",
			build: func() (string, []any) {
				return query.NewBuilder(live()).ForUpdate().BuildSingle("ID", 7)
			},
			wantSQL:  "SELECT d.id, d.title FROM public.documents d WHERE d.id = $1 AND d.deleted_at IS NULL FOR UPDATE",
			wantArgs: []any{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLiveWithoutSoftDelete(t *testing.T) {
	if got := testProjection().Live(); got != "" {
		t.Errorf("Live() = %q, want empty", got)
	}
}
