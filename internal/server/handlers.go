package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wegman-software/osmstats-go/internal/logger"
	"github.com/wegman-software/osmstats-go/internal/store"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head><title>OSM contributor statistics</title></head>
<body>
<h1>OSM contributor statistics</h1>
<table border="1" cellpadding="4">
<tr><th>#</th><th>User</th><th>Edits</th><th>Export</th></tr>
{{range $i, $u := .Users}}
<tr>
  <td>{{inc $i}}</td>
  <td>{{$u.Username}}</td>
  <td>{{$u.Edits}}</td>
  <td><a href="/api/users/{{$u.Username}}/export">csv</a></td>
</tr>
{{end}}
</table>
<p><a href="/api/dashboard.csv">Download dashboard CSV</a></p>
</body>
</html>`))

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.serverError(w, "failed to list users", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, map[string]any{"Users": users}); err != nil {
		logger.Get().Error("Failed to render dashboard", zap.Error(err))
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.serverError(w, "failed to list users", err)
		return
	}
	if users == nil {
		users = []store.UserRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(users); err != nil {
		logger.Get().Error("Failed to encode users", zap.Error(err))
	}
}

func (s *Server) handleDashboardCSV(w http.ResponseWriter, r *http.Request) {
	csvText, err := s.users.DashboardCSV(r.Context())
	if err != nil {
		s.serverError(w, "failed to build dashboard export", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.csv"`)
	w.Write([]byte(csvText))
}

func (s *Server) handleUserExport(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	csvText, err := s.exports.FetchExport(username)
	if err != nil {
		if errors.Is(err, store.ErrExportNotFound) {
			http.Error(w, "no export for this user", http.StatusNotFound)
			return
		}
		s.serverError(w, "failed to read export", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", username+".csv"))
	w.Write([]byte(csvText))
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	logger.Get().Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}
