package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/metricdeck-cli/internal/table"
	"github.com/google/cel-go/cel"
)

// RowVar exposes the whole row as a map so columns whose names are not
// valid identifiers can still be addressed: row["판매채널"] == "A".
const RowVar = "row"

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var celReserved = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"false": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "let": true, "loop": true, "package": true, "namespace": true,
	"null": true, "return": true, "true": true, "var": true, "void": true,
	"while": true, RowVar: true,
}

// identColumns returns the columns usable as bare CEL variables.
func identColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if identRE.MatchString(c) && !celReserved[c] {
			out = append(out, c)
		}
	}
	return out
}

func compile(t *table.Table, expr string) (cel.Program, error) {
	opts := []cel.EnvOption{
		cel.Variable(RowVar, cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	}
	for _, c := range identColumns(t) {
		opts = append(opts, cel.Variable(c, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile filter expression: %w", issues.Err())
	}
	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("build filter program: %w", err)
	}
	return prg, nil
}

// ValidateExpr reports whether expr compiles against t's columns.
func ValidateExpr(t *table.Table, expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := compile(t, expr)
	return err
}

// whereExpr keeps rows for which expr evaluates to true. Rows whose
// evaluation fails (a null operand, say) are excluded.
func whereExpr(t *table.Table, expr string) (*table.Table, error) {
	prg, err := compile(t, expr)
	if err != nil {
		return nil, err
	}
	cols := identColumns(t)
	return t.Filter(func(r table.Record) bool {
		row := r.Map()
		vars := make(map[string]any, len(cols)+1)
		vars[RowVar] = row
		for _, c := range cols {
			vars[c] = row[c]
		}
		out, _, err := prg.Eval(vars)
		if err != nil {
			return false
		}
		ok, isBool := out.Value().(bool)
		return isBool && ok
	}), nil
}

// JoinExpr combines non-blank expressions with && (op "and") or || (op "or").
// Each part is parenthesized when there is more than one.
func JoinExpr(op string, exprs ...string) string {
	var parts []string
	for _, e := range exprs {
		if s := strings.TrimSpace(e); s != "" {
			parts = append(parts, s)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	sep := " && "
	if strings.EqualFold(op, "or") {
		sep = " || "
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, sep)
}
