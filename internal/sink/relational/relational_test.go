package relational

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/dataset"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{"integers", []string{"1", "-2", "300"}, Integer},
		{"integers with blanks", []string{"1", "", " 2 "}, Integer},
		{"floats", []string{"1", "2.5", "1e3"}, Float},
		{"mixed text", []string{"1", "two"}, String},
		{"all empty", []string{"", ""}, String},
		{"no values", nil, String},
		{"int overflow is float", []string{"99999999999999999999"}, Float},
		{"non-finite is text", []string{"1", "inf"}, String},
		{"nan is text", []string{"NaN", "Inf"}, String},
		{"infinity is text", []string{"2.5", "-Infinity"}, String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferColumnType(tt.values); got != tt.want {
				t.Errorf("InferColumnType(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestDialect_CreateTableSQL(t *testing.T) {
	cols := []string{"name", "age"}
	types := []ColumnType{String, Integer}

	tests := []struct {
		driver string
		want   string
	}{
		{"sqlite", `CREATE TABLE IF NOT EXISTS "people" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT, "age" INTEGER)`},
		{"mysql", "CREATE TABLE IF NOT EXISTS `people` (`id` INT AUTO_INCREMENT PRIMARY KEY, `name` TEXT, `age` BIGINT)"},
		{"postgres", `CREATE TABLE IF NOT EXISTS "people" ("id" BIGSERIAL PRIMARY KEY, "name" TEXT, "age" BIGINT)`},
		{"sqlserver", "IF OBJECT_ID(N'people', N'U') IS NULL BEGIN CREATE TABLE [people] ([id] INT IDENTITY(1,1) PRIMARY KEY, [name] NVARCHAR(MAX), [age] BIGINT); END;"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, ok := lookupDialect(tt.driver)
			if !ok {
				t.Fatalf("lookupDialect(%q) not found", tt.driver)
			}
			if got := d.createTableSQL("people", "id", cols, types); got != tt.want {
				t.Errorf("createTableSQL() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestDialect_InsertSQL(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgres", `INSERT INTO "t" ("a", "b") VALUES ($1, $2)`},
		{"mysql", "INSERT INTO `t` (`a`, `b`) VALUES (?, ?)"},
		{"sqlserver", "INSERT INTO [t] ([a], [b]) VALUES (@p1, @p2)"},
	}
	for _, tt := range tests {
		d, _ := lookupDialect(tt.driver)
		if got := d.insertSQL("t", []string{"a", "b"}); got != tt.want {
			t.Errorf("%s insertSQL() = %s, want %s", tt.driver, got, tt.want)
		}
	}
}

func TestQuoting_EscapesDelimiters(t *testing.T) {
	if got := doubleQuote(`a"b`); got != `"a""b"` {
		t.Errorf("doubleQuote = %s", got)
	}
	if got := backtick("a`b"); got != "`a``b`" {
		t.Errorf("backtick = %s", got)
	}
	if got := bracket("a]b"); got != "[a]]b]" {
		t.Errorf("bracket = %s", got)
	}
}

func TestIdentityColumn(t *testing.T) {
	if got := identityColumn([]string{"name"}); got != "id" {
		t.Errorf("identityColumn = %q, want id", got)
	}
	if got := identityColumn([]string{"ID", "name"}); got != "row_id" {
		t.Errorf("identityColumn = %q, want row_id", got)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RelationalConfig
		wantErr bool
	}{
		{"mysql complete", config.RelationalConfig{Driver: "mysql", Host: "h", User: "u", Database: "d"}, false},
		{"mysql missing host", config.RelationalConfig{Driver: "mysql", User: "u", Database: "d"}, true},
		{"dsn override", config.RelationalConfig{Driver: "postgres", DSN: "postgres://x"}, false},
		{"sqlite needs path", config.RelationalConfig{Driver: "sqlite"}, true},
		{"unknown driver", config.RelationalConfig{Driver: "oracle", DSN: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			var ce *sink.ConfigError
			if err != nil && !errors.As(err, &ce) {
				t.Errorf("New() error = %T, want *sink.ConfigError", err)
			}
		})
	}
}

func TestSink_LabelFollowsDriver(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"postgresql", "postgres"},
		{"mysql", "mysql"},
		{"sqlite", "sqlite"},
		{"mssql", "sqlserver"},
	}
	for _, tt := range tests {
		s, err := New(config.RelationalConfig{Driver: tt.driver, DSN: "x"})
		if err != nil {
			t.Fatalf("New(%q) error = %v", tt.driver, err)
		}
		if got := sink.LabelOf(s); got != tt.want {
			t.Errorf("LabelOf(%s sink) = %q, want %q", tt.driver, got, tt.want)
		}
	}
}

func TestMySQLDSN(t *testing.T) {
	d, _ := lookupDialect("mysql")
	got := d.dsn(config.RelationalConfig{Host: "db", User: "u", Password: "p", Database: "app"}, 3306)
	if !strings.HasPrefix(got, "u:p@tcp(db:3306)/app") {
		t.Errorf("mysql dsn = %q", got)
	}
}

func peopleDataset(names ...string) *dataset.Dataset {
	ds := dataset.New("name", "age")
	for i, n := range names {
		ds.Append(dataset.Row{
			"name": dataset.StringValue(n),
			"age":  dataset.StringValue(strings.Repeat("1", i+1)),
		})
	}
	return ds
}

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestInsert_SQLiteCommits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.db")
	s, err := New(config.RelationalConfig{Driver: "sqlite", Database: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ds := peopleDataset("ann", "bob", "cy")
	ds.Append(dataset.Row{"name": dataset.StringValue("dee")})

	res, err := s.Insert(context.Background(), ds, "people")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if res.Inserted != 4 || res.Failed != 0 {
		t.Errorf("Result = %+v, want 4 inserted", res)
	}
	if got := countRows(t, path, "people"); got != 4 {
		t.Errorf("rows in table = %d, want 4", got)
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		text string
		want any
	}{
		{"string kept verbatim", String, "  ann ", "  ann "},
		{"empty string kept", String, "", ""},
		{"integer trimmed", Integer, " 42 ", int64(42)},
		{"empty integer is null", Integer, " ", nil},
		{"float", Float, "2.5", 2.5},
		{"empty float is null", Float, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.typ, tt.text)
			if err != nil {
				t.Fatalf("convert() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("convert(%v, %q) = %#v, want %#v", tt.typ, tt.text, got, tt.want)
			}
		})
	}
}

func TestInsert_SQLiteKeepsStringCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.db")
	s, err := New(config.RelationalConfig{Driver: "sqlite", Database: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ds := dataset.New("name", "note")
	ds.Append(dataset.Row{
		"name": dataset.StringValue("  ann "),
		"note": dataset.StringValue(""),
	})
	if _, err := s.Insert(context.Background(), ds, "notes"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var name, note sql.NullString
	if err := db.QueryRow(`SELECT "name", "note" FROM "notes"`).Scan(&name, &note); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !name.Valid || name.String != "  ann " {
		t.Errorf("name = %+v, want %q", name, "  ann ")
	}
	if !note.Valid || note.String != "" {
		t.Errorf("note = %+v, want empty string, not NULL", note)
	}
}

func TestInsert_SQLiteRollsBackOnRowFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE "people" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT UNIQUE, "age" INTEGER)`)
	db.Close()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	s, err := New(config.RelationalConfig{Driver: "sqlite", Database: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// row 3 repeats row 1's unique name
	ds := peopleDataset("ann", "bob", "ann", "dee", "eve")

	res, err := s.Insert(context.Background(), ds, "people")
	if err == nil {
		t.Fatal("Insert() expected error")
	}
	var se *sink.SinkError
	if !errors.As(err, &se) {
		t.Fatalf("Insert() error = %T, want *sink.SinkError", err)
	}
	if se.Op != "insert row 3" {
		t.Errorf("Op = %q, want %q", se.Op, "insert row 3")
	}
	if res.Inserted != 0 {
		t.Errorf("Inserted = %d, want 0", res.Inserted)
	}
	if got := countRows(t, path, "people"); got != 0 {
		t.Errorf("rows in table = %d, want 0 after rollback", got)
	}
}

func TestInsert_ConnectFailure(t *testing.T) {
	s, err := New(config.RelationalConfig{Driver: "sqlite", Database: filepath.Join(t.TempDir(), "missing", "x.db")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = s.Insert(context.Background(), peopleDataset("ann"), "people")
	var se *sink.SinkError
	if !errors.As(err, &se) {
		t.Fatalf("Insert() error = %v, want *sink.SinkError", err)
	}
}
