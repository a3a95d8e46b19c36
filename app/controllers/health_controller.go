package controllers

import (
	"github.com/shashiranjanraj/stockdesk/pkg/ctx"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
)

type HealthController struct {
	disks *storage.Manager
}

// Show handles GET /healthz.
func (hc *HealthController) Show(c *ctx.Context) {
	body := map[string]any{"status": "ok"}
	if hc.disks != nil {
		body["disks"] = hc.disks.Names()
	}
	c.Success(body)
}
