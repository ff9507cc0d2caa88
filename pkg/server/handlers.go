package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lingy-Mg/project-graph/pkg/results"
)

const maxBodySize = 10 << 20

func (s *Server) handleListResources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"resources": s.deps.Bridge.ListResources()})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.deps.Bridge.ListTools()})
}

func (s *Server) handleListPrompts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"prompts": s.deps.Bridge.ListPrompts()})
}

func (s *Server) handleReadResource(w http.ResponseWriter, r *http.Request) {
	uri := pathTail(r, "/mcp/resources/")

	response, err := s.deps.Bridge.ReadResource(r.Context(), uri)
	if err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := pathTail(r, "/mcp/tools/")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	args := bytes.TrimSpace(body)
	if len(args) == 0 {
		args = []byte("{}")
	}
	if !json.Valid(args) {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	response, err := s.deps.Bridge.CallTool(r.Context(), name, json.RawMessage(args))
	if err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	name := pathTail(r, "/mcp/prompts/")

	response, err := s.deps.Bridge.GetPrompt(r.Context(), name)
	if err != nil {
		writeBridgeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetResult reports 202 while the instance has not answered yet.
// With ?path=<jsonpath> only the selected part of the result is returned.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	ticket := pathTail(r, "/mcp/results/")

	entry, found := s.deps.Results.Get(ticket)
	if !found {
		writeError(w, http.StatusNotFound, "unknown ticket: "+ticket)
		return
	}

	if entry.State == results.StatePending {
		writeJSON(w, http.StatusAccepted, entry)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusOK, entry)
		return
	}

	value, err := results.Project(entry.Result, path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket": entry.Ticket,
		"state":  entry.State,
		"path":   path,
		"value":  value,
	})
}

func (s *Server) handlePublishResult(w http.ResponseWriter, r *http.Request) {
	ticket := pathTail(r, "/mcp/results/")

	var outcome results.Outcome
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&outcome); err != nil {
		writeError(w, http.StatusBadRequest, "invalid outcome: "+err.Error())
		return
	}

	entry, err := s.deps.Results.Publish(ticket, outcome)
	if err != nil {
		if errors.Is(err, results.ErrUnknownTicket) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleInstance(w http.ResponseWriter, _ *http.Request) {
	info, attached := s.deps.Holder.Attached()
	if !attached {
		writeJSON(w, http.StatusOK, map[string]any{"attached": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"attached":  true,
		"name":      info.Name,
		"transport": info.Transport,
		"since":     info.Since,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.health.IsHealthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
}
