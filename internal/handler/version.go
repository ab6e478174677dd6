package handler

import (
	"net/http"

	"github.com/biharilibrary/library-manager/backend/internal/utils"
)

func (h *Handler) VersionCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentVersion string `json:"currentVersion" validate:"required,max=32"`
		Platform       string `json:"platform" validate:"required,oneof=android ios"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	toLatest, err := utils.CompareVersions(req.CurrentVersion, h.config.App.LatestVersion)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	toMinimum, err := utils.CompareVersions(req.CurrentVersion, h.config.App.MinSupportedVersion)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "检查更新成功", map[string]any{
		"updateAvailable": toLatest < 0,
		"version":         h.config.App.LatestVersion,
		"downloadUrl":     h.config.App.DownloadURL,
		"releaseNotes":    h.config.App.ReleaseNotes,
		"forceUpdate":     toMinimum < 0,
	})
}
