package http

import (
	"github.com/jobson-okosun/InkMind-API/internal/domain/entities"
	"github.com/jobson-okosun/InkMind-API/internal/ports"
)

// Response status values
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// NoteData wraps a single note
type NoteData struct {
	Note *entities.Note `json:"note"`
}

// NoteResponse is the envelope for single-note endpoints
type NoteResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Data    NoteData `json:"data"`
}

// Pagination describes the page returned by a list call
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalNotes  int64 `json:"totalNotes"`
}

// NotesData wraps a page of notes, each trimmed to the requested fields
type NotesData struct {
	Notes []map[string]interface{} `json:"notes"`
}

// NoteListResponse is the envelope for the list endpoint
type NoteListResponse struct {
	Status     string     `json:"status"`
	Results    int        `json:"results"`
	Pagination Pagination `json:"pagination"`
	Data       NotesData  `json:"data"`
}

// ErrorResponse is rendered for every failed request
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func noteResponse(note *entities.Note, message string) NoteResponse {
	return NoteResponse{
		Status:  StatusSuccess,
		Message: message,
		Data:    NoteData{Note: note},
	}
}

func noteListResponse(list *ports.NoteList) NoteListResponse {
	notes := make([]map[string]interface{}, 0, len(list.Notes))
	for _, n := range list.Notes {
		notes = append(notes, project(n, list.Fields))
	}
	return NoteListResponse{
		Status:  StatusSuccess,
		Results: len(notes),
		Pagination: Pagination{
			CurrentPage: list.Page,
			TotalPages:  list.TotalPages,
			TotalNotes:  list.Total,
		},
		Data: NotesData{Notes: notes},
	}
}

// project keeps only the named fields. The id is always included.
func project(n *entities.Note, fields []string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	out["id"] = n.ID
	for _, f := range fields {
		if v, ok := n.Field(f); ok {
			out[f] = v
		}
	}
	return out
}
