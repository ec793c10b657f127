package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
)

// Envelope is the body of every successful JSON response
type Envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// respond writes data inside the success envelope
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Status: "success", Data: data})
}

// serveExport writes a rendered file as an attachment
func serveExport(w http.ResponseWriter, export *services.Export) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(export.Data)
}
