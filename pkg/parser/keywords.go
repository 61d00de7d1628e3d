package parser

import (
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Soft keywords are identifiers that have special meaning in specific contexts.
// They are not reserved words and can be used as identifiers elsewhere.
// Example: "APPLY" is a soft keyword in "CROSS APPLY" but can still be used
// as a column name in "SELECT apply FROM rules".
const (
	SoftKeywordApply    = "APPLY"
	SoftKeywordOffset   = "OFFSET"
	SoftKeywordFetch    = "FETCH"
	SoftKeywordPercent  = "PERCENT"
	SoftKeywordTies     = "TIES"
	SoftKeywordOutput   = "OUTPUT"
	SoftKeywordOut      = "OUT"
	SoftKeywordOption   = "OPTION"
	SoftKeywordCollate  = "COLLATE"
	SoftKeywordEscape   = "ESCAPE"
	SoftKeywordWithin   = "WITHIN"
	SoftKeywordTry      = "TRY"
	SoftKeywordCatch    = "CATCH"
	SoftKeywordTran     = "TRAN"
	SoftKeywordTxn      = "TRANSACTION"
	SoftKeywordReadonly = "READONLY"
	SoftKeywordVarying  = "VARYING"
	SoftKeywordMerge    = "MERGE"
	SoftKeywordOff      = "OFF"
)

// statementWords are non-reserved words that begin a statement when they
// appear at statement position.
var statementWords = map[string]bool{
	"MERGE":      true,
	"TRUNCATE":   true,
	"DROP":       true,
	"PRINT":      true,
	"RAISERROR":  true,
	"THROW":      true,
	"COMMIT":     true,
	"ROLLBACK":   true,
	"SAVE":       true,
	"USE":        true,
	"GRANT":      true,
	"DENY":       true,
	"REVOKE":     true,
	"BREAK":      true,
	"CONTINUE":   true,
	"GOTO":       true,
	"WAITFOR":    true,
	"OPEN":       true,
	"CLOSE":      true,
	"DEALLOCATE": true,
	"BULK":       true,
	"DBCC":       true,
	"ENABLE":     true,
	"DISABLE":    true,
}

// aliasStopWords are identifiers that can never be an implicit alias
// because they continue the statement or start a new one.
var aliasStopWords = map[string]bool{
	"OPTION":      true,
	"PIVOT":       true,
	"UNPIVOT":     true,
	"OUTPUT":      true,
	"WINDOW":      true,
	"TABLESAMPLE": true,
	"OFFSET":      true,
	"FETCH":       true,
	"APPLY":       true,
	"COLLATE":     true,
}

func isStatementWord(word string) bool {
	return statementWords[strings.ToUpper(word)]
}

func isAliasStopWord(word string) bool {
	upper := strings.ToUpper(word)
	return aliasStopWords[upper] || statementWords[upper]
}

// upperLiteral returns the upper-cased literal of tok.
func upperLiteral(tok token.Token) string {
	return strings.ToUpper(tok.Literal)
}
