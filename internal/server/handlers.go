package server

import (
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/brewery/internal/database"
	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/schema"
)

const maxQueryBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var path string
	err := s.session.Do(func(conn *database.Connection) error {
		path = conn.Path()
		return conn.Execute(database.Raw("SELECT 1"))
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": path})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	var info *schema.SchemaInfo
	err := s.session.Do(func(conn *database.Connection) error {
		var err error
		info, err = schema.NewIntrospector(conn).InspectSchema("")
		return err
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type tableRows struct {
	Table   string           `json:"table"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Limit   int              `json:"limit,omitempty"`
	Offset  int              `json:"offset,omitempty"`
}

// handleTableRows serves one page of a table.
//
//	?limit=N&offset=N     paging, limit capped by MaxRows
//	?order=Name,-Price    ORDER BY, a leading '-' sorts descending
//	?where.City=Prague    equality filters, combined with AND
func (s *Server) handleTableRows(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"), s.cfg.MaxRows)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if s.cfg.MaxRows > 0 && (limit == 0 || limit > s.cfg.MaxRows) {
		limit = s.cfg.MaxRows
	}
	offset, err := intParam(query.Get("offset"), 0)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	resp := tableRows{Table: name, Limit: limit, Offset: offset}
	err = s.session.Do(func(conn *database.Connection) error {
		info, err := schema.NewIntrospector(conn).InspectTable("", name)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(info.Columns))
		for _, c := range info.Columns {
			known[c.Name] = true
		}

		b := database.Select(name).Capacity(conn.Formatter().Capacity())
		for key, values := range query {
			col, ok := strings.CutPrefix(key, "where.")
			if !ok {
				continue
			}
			if !known[col] {
				return errs.Newf(errs.ErrKindInvalidInput, "unknown column %q", col)
			}
			for _, v := range values {
				b.Where(col, "=", v)
			}
		}
		if order := query.Get("order"); order != "" {
			for _, field := range strings.Split(order, ",") {
				col, dir := strings.TrimSpace(field), database.Asc
				if rest, ok := strings.CutPrefix(col, "-"); ok {
					col, dir = rest, database.Desc
				}
				if !known[col] {
					return errs.Newf(errs.ErrKindInvalidInput, "unknown column %q", col)
				}
				b.OrderBy(col, dir)
			}
		}
		if limit > 0 {
			b.Limit(limit)
		}
		if offset > 0 {
			b.Offset(offset)
		}

		st, err := b.Build()
		if err != nil {
			return err
		}
		resp.Columns, resp.Rows, err = database.ScanTable(conn.Query(st))
		return err
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTableSize(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var size int
	err := s.session.Do(func(conn *database.Connection) error {
		ok, err := schema.NewIntrospector(conn).TableExists("", name)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Newf(errs.ErrKindNotFound, "table %q does not exist", name)
		}
		size, err = conn.Size(name)
		return err
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": name, "size": size})
}

type resultSet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// handleQuery runs the request body as a statement script, the same path
// the console takes. Rows come back as text.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueryBytes))
	if err != nil {
		writeError(w, errs.Wrap(errs.ErrKindInvalidInput, "read statement", err), nil)
		return
	}
	sql := strings.TrimSpace(string(body))
	if sql == "" {
		writeError(w, errs.New(errs.ErrKindInvalidInput, "empty statement"), nil)
		return
	}

	results := []resultSet{}
	var logged []string
	err = s.session.Do(func(conn *database.Connection) error {
		mark := conn.Sink().Len()
		err := conn.ExecuteFunc(database.Raw(sql), func(values, names []string) error {
			last := len(results) - 1
			if last < 0 || !slices.Equal(results[last].Columns, names) {
				results = append(results, resultSet{Columns: names, Rows: [][]string{}})
				last++
			}
			results[last].Rows = append(results[last].Rows, values)
			return nil
		})
		if err != nil {
			logged = conn.Sink().Since(mark)
		}
		return err
	})
	if err != nil {
		writeError(w, err, logged)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	since, err := intParam(r.URL.Query().Get("since"), 0)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	var lines []string
	var next int
	_ = s.session.Do(func(conn *database.Connection) error {
		lines = conn.Sink().Since(since)
		next = conn.Sink().Len()
		return nil
	})
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines, "next": next})
}

func (s *Server) handleClearLog(w http.ResponseWriter, r *http.Request) {
	_ = s.session.Do(func(conn *database.Connection) error {
		conn.Sink().Clear()
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := s.backups.List(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": list})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	info, err := s.backups.Backup(r.Context(), s.session)
	if err != nil {
		s.log.ErrorWith("backup failed", err, nil)
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleBackupLink(w http.ResponseWriter, r *http.Request) {
	url, err := s.backups.Link(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errs.Newf(errs.ErrKindInvalidInput, "%q is not a non-negative integer", raw)
	}
	return n, nil
}
