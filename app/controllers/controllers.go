// Package controllers serves the console's JSON API on top of the services.
package controllers

import (
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
)

// Deps is what the controllers need from the booted application.
type Deps struct {
	Products *services.ProductService
	Stock    *services.StockFlow
	Reports  *services.ReportService
	Bus      *event.Bus
	Disks    *storage.Manager
}

// Set groups every controller mounted by routes.RegisterAPI.
type Set struct {
	Products *ProductController
	Stock    *StockController
	Reports  *ReportController
	Events   *EventController
	Health   *HealthController
}

func New(d Deps) *Set {
	return &Set{
		Products: &ProductController{products: d.Products},
		Stock:    &StockController{flow: d.Stock},
		Reports:  &ReportController{reports: d.Reports},
		Events:   &EventController{bus: d.Bus},
		Health:   &HealthController{disks: d.Disks},
	}
}
