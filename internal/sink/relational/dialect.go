package relational

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/dbroute/internal/config"
)

// dialect captures everything that differs between the supported engines.
type dialect struct {
	name        string
	driver      string
	defaultPort int
	types       [3]string // indexed by ColumnType
	identity    string    // column definition format; %s is the quoted name

	quote       func(string) string
	placeholder func(n int) string
	create      func(table, quoted, defs string) string
	dsn         func(cfg config.RelationalConfig, port int) string
}

var dialects = map[string]*dialect{
	"postgres": {
		name:        "postgres",
		driver:      "pgx",
		defaultPort: 5432,
		types:       [3]string{String: "TEXT", Integer: "BIGINT", Float: "DOUBLE PRECISION"},
		identity:    "%s BIGSERIAL PRIMARY KEY",
		quote:       doubleQuote,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		create:      createIfNotExists,
		dsn:         postgresDSN,
	},
	"mysql": {
		name:        "mysql",
		driver:      "mysql",
		defaultPort: 3306,
		types:       [3]string{String: "TEXT", Integer: "BIGINT", Float: "DOUBLE"},
		identity:    "%s INT AUTO_INCREMENT PRIMARY KEY",
		quote:       backtick,
		placeholder: func(int) string { return "?" },
		create:      createIfNotExists,
		dsn:         mysqlDSN,
	},
	"sqlite": {
		name:        "sqlite",
		driver:      "sqlite",
		types:       [3]string{String: "TEXT", Integer: "INTEGER", Float: "REAL"},
		identity:    "%s INTEGER PRIMARY KEY AUTOINCREMENT",
		quote:       doubleQuote,
		placeholder: func(int) string { return "?" },
		create:      createIfNotExists,
		dsn:         func(cfg config.RelationalConfig, _ int) string { return cfg.Database },
	},
	"sqlserver": {
		name:        "sqlserver",
		driver:      "sqlserver",
		defaultPort: 1433,
		types:       [3]string{String: "NVARCHAR(MAX)", Integer: "BIGINT", Float: "FLOAT"},
		identity:    "%s INT IDENTITY(1,1) PRIMARY KEY",
		quote:       bracket,
		placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
		create:      createIfObjectMissing,
		dsn:         sqlserverDSN,
	},
}

func lookupDialect(driver string) (*dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgresql", "pgx":
		driver = "postgres"
	case "mssql":
		driver = "sqlserver"
	}
	d, ok := dialects[strings.ToLower(strings.TrimSpace(driver))]
	return d, ok
}

func doubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func backtick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func bracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func createIfNotExists(_, quoted, defs string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoted, defs)
}

func createIfObjectMissing(table, quoted, defs string) string {
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		strings.ReplaceAll(table, "'", "''"), quoted, defs,
	)
}

func mysqlDSN(cfg config.RelationalConfig, port int) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	return mc.FormatDSN()
}

func postgresDSN(cfg config.RelationalConfig, port int) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	return u.String()
}

func sqlserverDSN(cfg config.RelationalConfig, port int) string {
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		RawQuery: url.Values{"database": {cfg.Database}}.Encode(),
	}
	return u.String()
}

// createTableSQL builds the create-if-absent statement for table with one
// column per dataset column plus the identity column.
func (d *dialect) createTableSQL(table, identity string, columns []string, types []ColumnType) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, fmt.Sprintf(d.identity, d.quote(identity)))
	for i, col := range columns {
		defs = append(defs, d.quote(col)+" "+d.types[types[i]])
	}
	return d.create(table, d.quote(table), strings.Join(defs, ", "))
}

// insertSQL builds a parameterized single-row INSERT.
func (d *dialect) insertSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.quote(table))
	b.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.quote(col))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.placeholder(i + 1))
	}
	b.WriteString(")")
	return b.String()
}

// identityColumn picks "id" unless the data already uses it.
func identityColumn(columns []string) string {
	for _, c := range columns {
		if strings.EqualFold(c, "id") {
			return "row_id"
		}
	}
	return "id"
}
