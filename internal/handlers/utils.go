package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/docgenie/internal/adapter"
	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

var logRH = logger_i.NewLogger("ResponseWriter")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left but to log it
		logRH.Error("Error encoding response", "err", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeRagError maps an error kind onto its status code. Unclassified errors
// are reported as a plain 500 so internals do not leak.
func writeRagError(w http.ResponseWriter, id string, err error) {
	code := ragErrors.HTTPStatus(err)
	message := err.Error()
	var re *ragErrors.Error
	if errors.As(err, &re) {
		message = re.Message
	}
	if code == http.StatusInternalServerError {
		logRH.Error("request failed", "id", id, "err", err)
		message = "Internal Server Error"
	}
	res := adapter.BadRequest(id, message, code)
	res.Error.Kind = string(ragErrors.KindOf(err))
	res.Error.Retry = ragErrors.Transient(err)
	writeJsonResponse(w, code, res)
}

// GetTargetDirectory returns the upload directory under root, creating it if needed.
func GetTargetDirectory(root string) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	targetDir := filepath.Join(root, config.UploadDirName)
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}
