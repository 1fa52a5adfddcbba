package graph

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver the store opens. It is the mattn
// SQLite driver with the SPARQL helper functions registered.
const DriverName = "sqlite3_sparqlmd"

// SQL functions available to compiled queries. None of them accept NULL,
// so callers guard their arguments.
const (
	// FuncRegex(text, pattern, flags) reports whether text matches pattern.
	FuncRegex = "sparql_regex"
	// FuncLower(text) lowercases with Unicode case mapping.
	FuncLower = "sparql_lcase"
	// FuncUpper(text) uppercases with Unicode case mapping.
	FuncUpper = "sparql_ucase"
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc(FuncRegex, regexMatch, true); err != nil {
				return fmt.Errorf("register %s: %w", FuncRegex, err)
			}
			if err := conn.RegisterFunc(FuncLower, strings.ToLower, true); err != nil {
				return fmt.Errorf("register %s: %w", FuncLower, err)
			}
			if err := conn.RegisterFunc(FuncUpper, strings.ToUpper, true); err != nil {
				return fmt.Errorf("register %s: %w", FuncUpper, err)
			}
			return nil
		},
	})
}

var regexCache sync.Map // flags + "/" + pattern → *regexp.Regexp

func regexMatch(text, pattern, flags string) (int64, error) {
	re, err := compileRegex(pattern, flags)
	if err != nil {
		return 0, err
	}
	if re.MatchString(text) {
		return 1, nil
	}
	return 0, nil
}

// compileRegex translates SPARQL (XPath) regex flags to Go syntax.
// Supported flags: i, m, s. The q flag quotes the whole pattern.
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	key := flags + "/" + pattern
	if re, ok := regexCache.Load(key); ok {
		return re.(*regexp.Regexp), nil
	}

	var goFlags strings.Builder
	expr := pattern
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			goFlags.WriteRune(f)
		case 'q':
			expr = regexp.QuoteMeta(pattern)
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", f)
		}
	}
	if goFlags.Len() > 0 {
		expr = "(?" + goFlags.String() + ")" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	regexCache.Store(key, re)
	return re, nil
}
