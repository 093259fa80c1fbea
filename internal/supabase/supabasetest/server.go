// Package supabasetest runs an in-memory PostgREST look-alike for tests.
// It understands the subset the stores use: eq filters, order=<col>.desc,
// limit, and Prefer: return=representation.
package supabasetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const restPrefix = "/rest/v1/"

// Server is an httptest server holding tables as decoded JSON rows.
type Server struct {
	*httptest.Server
	APIKey string

	mu     sync.Mutex
	tables map[string][]map[string]any
	// unique lists columns that reject duplicates, keyed by table.
	unique map[string][]string
}

// New starts a server that accepts apiKey.
func New(apiKey string) *Server {
	s := &Server{
		APIKey: apiKey,
		tables: map[string][]map[string]any{},
		unique: map[string][]string{"users": {"email"}},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Rows returns a copy of a table's rows.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, row := range s.tables[table] {
		out = append(out, cloneRow(row))
	}
	return out
}

// Seed appends a raw row, bypassing validation.
func (s *Server) Seed(table string, row map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], cloneRow(row))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != s.APIKey || r.Header.Get("Authorization") != "Bearer "+s.APIKey {
		writeError(w, http.StatusUnauthorized, "PGRST301", "invalid api key")
		return
	}
	if !strings.HasPrefix(r.URL.Path, restPrefix) {
		writeError(w, http.StatusNotFound, "PGRST125", "invalid path")
		return
	}
	table := strings.TrimPrefix(r.URL.Path, restPrefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		rows := s.match(table, r)
		rows = order(rows, r.URL.Query().Get("order"))
		if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(rows) {
			rows = rows[:limit]
		}
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPost:
		s.insert(w, r, table)
	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
			return
		}
		updated := []map[string]any{}
		for _, row := range s.tables[table] {
			if matches(row, r) {
				for k, v := range patch {
					row[k] = v
				}
				updated = append(updated, cloneRow(row))
			}
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		kept := s.tables[table][:0]
		deleted := []map[string]any{}
		for _, row := range s.tables[table] {
			if matches(row, r) {
				deleted = append(deleted, row)
				continue
			}
			kept = append(kept, row)
		}
		s.tables[table] = kept
		writeJSON(w, http.StatusOK, deleted)
	default:
		writeError(w, http.StatusMethodNotAllowed, "PGRST000", "method not allowed")
	}
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request, table string) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
		return
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		var single map[string]any
		if err := json.Unmarshal(raw, &single); err != nil {
			writeError(w, http.StatusBadRequest, "PGRST102", "invalid body")
			return
		}
		rows = []map[string]any{single}
	}

	for _, row := range rows {
		for _, col := range s.unique[table] {
			for _, existing := range s.tables[table] {
				if fmt.Sprint(existing[col]) == fmt.Sprint(row[col]) {
					writeError(w, http.StatusConflict, "23505",
						fmt.Sprintf("duplicate key value violates unique constraint \"%s_%s_key\"", table, col))
					return
				}
			}
		}
	}

	created := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if _, ok := row["created_at"]; !ok || row["created_at"] == nil {
			row["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
		}
		s.tables[table] = append(s.tables[table], row)
		created = append(created, cloneRow(row))
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) match(table string, r *http.Request) []map[string]any {
	out := []map[string]any{}
	for _, row := range s.tables[table] {
		if matches(row, r) {
			out = append(out, cloneRow(row))
		}
	}
	return out
}

func matches(row map[string]any, r *http.Request) bool {
	for key, values := range r.URL.Query() {
		switch key {
		case "order", "limit", "select":
			continue
		}
		for _, v := range values {
			want, ok := strings.CutPrefix(v, "eq.")
			if !ok || fmt.Sprint(row[key]) != want {
				return false
			}
		}
	}
	return true
}

func order(rows []map[string]any, clause string) []map[string]any {
	col, dir, _ := strings.Cut(clause, ".")
	if col == "" {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := sortKey(rows[i][col]), sortKey(rows[j][col])
		if dir == "desc" {
			return a.After(b)
		}
		return a.Before(b)
	})
	return rows
}

func sortKey(v any) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, fmt.Sprint(v))
	return t
}

func cloneRow(row map[string]any) map[string]any {
	raw, _ := json.Marshal(row)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
