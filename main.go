package main

import (
	"log"
	"net/http"
	_ "time/tzdata"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"opname/collections"
	"opname/config"
	"opname/handlers"
	"opname/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := pocketbase.New()
	session := services.NewSession(app)
	store := services.NewSheetStore(session)

	// Create collections, seed data and open the sheet session on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := session.Open(); err != nil {
			log.Printf("Warning: sheet session not ready: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		compositor := services.NewCompositor(cfg, store, app.Logger())
		imageProxy := &services.HTTPPhotoProxy{
			Client:   &http.Client{Timeout: cfg.PhotoTimeout},
			MaxBytes: cfg.PhotoMaxBytes,
		}
		loc := cfg.Location()

		// Data routes answer 503 until the session is ready
		se.Router.BindFunc(handlers.RequireSession(session))

		// ── JSON API ─────────────────────────────────────────────
		se.Router.GET("/api/rab", handlers.HandleRABList(store))
		se.Router.GET("/api/pic-kontraktor", handlers.HandlePicContractor(store))
		se.Router.GET("/api/opname/final", handlers.HandleFinalOpnameList(store))
		se.Router.GET("/api/toko", handlers.HandlePICStores(store))
		se.Router.GET("/api/toko_kontraktor", handlers.HandleContractorStores(store))
		se.Router.GET("/api/opname", handlers.HandleOpnameTasks(store))
		se.Router.POST("/api/opname/item/submit", handlers.HandleOpnameSubmit(store, loc))
		se.Router.GET("/api/opname/pending", handlers.HandlePendingList(store))
		se.Router.GET("/api/opname/pending/counts", handlers.HandlePendingCounts(store))
		se.Router.PATCH("/api/opname/approve", handlers.HandleOpnameDecision(store, collections.StatusApproved))
		se.Router.PATCH("/api/opname/reject", handlers.HandleOpnameDecision(store, collections.StatusRejected))
		se.Router.GET("/api/image-proxy", handlers.HandleImageProxy(imageProxy))

		// ── Store pages and downloads ────────────────────────────
		se.Router.GET("/stores/{kode}/opname-final", handlers.HandleFinalOpnameView(store))
		se.Router.GET("/stores/{kode}/opname-final/pdf", handlers.HandleOpnameSummaryPDF(store, loc))
		se.Router.GET("/stores/{kode}/report", handlers.HandleReportExport(store, compositor))
		se.Router.GET("/stores/{kode}/rab/excel", handlers.HandleRABExcel(store, loc))
		se.Router.POST("/stores/{kode}/rab/import", handlers.HandleRABImport(app))

		// Store list
		se.Router.GET("/{$}", handlers.HandleStoreList(store))

		return se.Next()
	})

	app.RootCmd.AddCommand(newReportCommand(app, cfg, session, store))

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
