package api

import (
	"context"
	"database/sql"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// queryRowCap bounds ad-hoc query results so a careless SELECT cannot
// stream the whole view log back to the client.
const queryRowCap = 1000

// DBHandler exposes read-only access to the DuckDB event log: the table
// listing and a SELECT-only query endpoint for dashboards and debugging.
type DBHandler struct {
	db *sql.DB
}

func NewDBHandler(db *sql.DB) *DBHandler {
	return &DBHandler{db: db}
}

func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/tables", h.ListTables, huma.OperationTags("stats"))
	huma.Post(api, "/api/query", h.Query, huma.OperationTags("stats"))
}

type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"Event log table names"`
	}
}

func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("event log not available")
	}

	rows, err := h.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list tables", err)
	}
	defer rows.Close()

	out := &TablesOutput{}
	out.Body.Tables = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			out.Body.Tables = append(out.Body.Tables, name)
		}
	}
	return out, nil
}

type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" doc:"Read-only SQL query (SELECT only)"`
	}
}

type QueryOutput struct {
	Body struct {
		Columns []string         `json:"columns" doc:"Column names"`
		Rows    []map[string]any `json:"rows" doc:"Result rows"`
		Count   int              `json:"count" doc:"Number of rows returned"`
	}
}

// Query runs a read-only SQL query against the event log. Only SELECT
// statements are accepted; results are capped at queryRowCap rows.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("event log not available")
	}

	q := strings.TrimSpace(input.Body.Query)
	if !strings.HasPrefix(strings.ToUpper(q), "SELECT") {
		return nil, huma.Error400BadRequest("only SELECT queries are allowed")
	}

	rows, err := h.db.QueryContext(ctx, q)
	if err != nil {
		return nil, huma.Error400BadRequest("query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read columns", err)
	}

	out := &QueryOutput{}
	out.Body.Columns = columns
	out.Body.Rows = []map[string]any{}
	for rows.Next() && len(out.Body.Rows) < queryRowCap {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			continue
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out.Body.Rows = append(out.Body.Rows, row)
	}
	out.Body.Count = len(out.Body.Rows)
	return out, nil
}
