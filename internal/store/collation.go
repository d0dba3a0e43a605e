package store

import (
	"database/sql/driver"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

// CollationName is the SQLite collation used for every user-facing string sort
const CollationName = "LIVELOG_CI"

// FoldFunction is the SQL function that Unicode case-folds a text value.
// SQLite's own LIKE and lower() only fold ASCII.
const FoldFunction = "livelog_fold"

// Neither a Collator nor a Caser is safe for concurrent use.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und, collate.IgnoreCase, collate.IgnoreWidth)

	folderMu sync.Mutex
	folder   = cases.Fold()
)

func init() {
	sqlite.MustRegisterCollationUtf8(CollationName, CompareNames)
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunction, 1, foldValue)
}

// FoldText case-folds s so "Ärzte" and "ärzte" compare equal
func FoldText(s string) string {
	folderMu.Lock()
	defer folderMu.Unlock()
	return folder.String(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return FoldText(v), nil
	case []byte:
		return FoldText(string(v)), nil
	default:
		return v, nil
	}
}

// CompareNames orders strings by the root Unicode collation, ignoring case
// and width, so mixed-script artist and venue names sort predictably.
// Byte order breaks ties to keep the ordering total.
func CompareNames(a, b string) int {
	collatorMu.Lock()
	c := collator.CompareString(a, b)
	collatorMu.Unlock()
	if c != 0 {
		return c
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
