package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresSource serves the history methods directly from Postgres
// projection tables, for self-hosted deployments that keep their account
// history locally instead of going through the hosted report server. It
// implements the same method surface as HTTPSource for the page-fetch
// methods; export methods are only available on the hosted server.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Call(ctx context.Context, method string, _ Auth, params any) (json.RawMessage, error) {
	p, err := decodePageParams(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	switch method {
	case "getLedgers":
		return s.getLedgers(ctx, p)
	case "getTrades":
		return s.getTrades(ctx, p)
	case "getMovements":
		return s.getMovements(ctx, p)
	case "getPositionsHistory":
		return s.getPositionsHistory(ctx, p)
	default:
		return nil, &APIError{Code: 404, Message: fmt.Sprintf("method not supported by postgres source: %s", method)}
	}
}

// decodePageParams accepts either a PageParams value (in-process callers) or
// anything that marshals to the same JSON shape.
func decodePageParams(params any) (PageParams, error) {
	if p, ok := params.(PageParams); ok {
		return p, nil
	}
	if params == nil {
		return PageParams{}, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return PageParams{}, fmt.Errorf("encode params: %w", err)
	}
	var p PageParams
	if err := json.Unmarshal(data, &p); err != nil {
		return PageParams{}, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}

type ledgerRow struct {
	ID       int64  `json:"id"`
	Mts      int64  `json:"mts"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Balance  string `json:"balance"`
	Desc     string `json:"description"`
}

func (s *PostgresSource) getLedgers(ctx context.Context, p PageParams) (json.RawMessage, error) {
	query, args := buildHistoryQuery(
		`SELECT id, mts, currency, amount, balance, description FROM report.ledgers`,
		"mts", "currency", p,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledgers: %w", err)
	}
	defer rows.Close()

	var out []ledgerRow
	for rows.Next() {
		var r ledgerRow
		if err := rows.Scan(&r.ID, &r.Mts, &r.Currency, &r.Amount, &r.Balance, &r.Desc); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return marshalRows(out)
}

type tradeRow struct {
	ID        int64  `json:"id"`
	MtsCreate int64  `json:"mtsCreate"`
	Pair      string `json:"pair"`
	ExecAmt   string `json:"execAmount"`
	ExecPrice string `json:"execPrice"`
	Fee       string `json:"fee"`
}

func (s *PostgresSource) getTrades(ctx context.Context, p PageParams) (json.RawMessage, error) {
	query, args := buildHistoryQuery(
		`SELECT id, mts_create, pair, exec_amount, exec_price, fee FROM report.trades`,
		"mts_create", "pair", p,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []tradeRow
	for rows.Next() {
		var r tradeRow
		if err := rows.Scan(&r.ID, &r.MtsCreate, &r.Pair, &r.ExecAmt, &r.ExecPrice, &r.Fee); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return marshalRows(out)
}

type movementRow struct {
	ID         int64  `json:"id"`
	MtsUpdated int64  `json:"mtsUpdated"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
}

func (s *PostgresSource) getMovements(ctx context.Context, p PageParams) (json.RawMessage, error) {
	query, args := buildHistoryQuery(
		`SELECT id, mts_updated, currency, amount, status FROM report.movements`,
		"mts_updated", "currency", p,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var out []movementRow
	for rows.Next() {
		var r movementRow
		if err := rows.Scan(&r.ID, &r.MtsUpdated, &r.Currency, &r.Amount, &r.Status); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return marshalRows(out)
}

type positionRow struct {
	ID        int64  `json:"id"`
	MtsUpdate int64  `json:"mtsUpdate"`
	Symbol    string `json:"symbol"`
	Amount    string `json:"amount"`
	BasePrice string `json:"basePrice"`
	Status    string `json:"status"`
}

func (s *PostgresSource) getPositionsHistory(ctx context.Context, p PageParams) (json.RawMessage, error) {
	query, args := buildHistoryQuery(
		`SELECT id, mts_update, symbol, amount, base_price, status FROM report.positions`,
		"mts_update", "symbol", p,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var out []positionRow
	for rows.Next() {
		var r positionRow
		if err := rows.Scan(&r.ID, &r.MtsUpdate, &r.Symbol, &r.Amount, &r.BasePrice, &r.Status); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return marshalRows(out)
}

// buildHistoryQuery appends the shared time-range, symbol and limit clauses.
// History pages are served newest-first; the End boundary is exclusive of
// nothing (<=) because callers pass smallestMts minus one.
func buildHistoryQuery(base, mtsCol, symCol string, p PageParams) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if p.Start > 0 {
		args = append(args, p.Start)
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", mtsCol, len(args)))
	}
	if p.End > 0 {
		args = append(args, p.End)
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", mtsCol, len(args)))
	}
	if len(p.Symbol) > 0 {
		args = append(args, pq.Array(p.Symbol))
		clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", symCol, len(args)))
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s DESC", mtsCol)
	if p.Limit > 0 {
		args = append(args, p.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

func marshalRows(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	if string(data) == "null" {
		return json.RawMessage("[]"), nil
	}
	return data, nil
}
