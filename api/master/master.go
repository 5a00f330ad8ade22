package master

import (
	"database/sql"
	"log"
	"net/http"

	"AcenteCorpSaas/api"
	"AcenteCorpSaas/api/importer"
	"AcenteCorpSaas/api/master/reference"
)

func StartMasterService(db *sql.DB) {
	caller := api.CallerContextMiddleware(db)
	hasParser := func(id string) bool { return importer.ParserByID(id) != nil }

	mux := http.NewServeMux()
	mux.HandleFunc("/master/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Master Service is active"))
	})
	mux.Handle("/master/carriers/all", caller(reference.GetAllCarriers(db, hasParser)))
	mux.Handle("/master/branches/all", caller(reference.GetAllBranches(db)))
	mux.Handle("/master/commission-rate", caller(reference.GetCommissionRate(db)))

	log.Println("Master Service started on :2143")
	if err := http.ListenAndServe(":2143", mux); err != nil {
		log.Fatalf("Master Service failed: %v", err)
	}
}
