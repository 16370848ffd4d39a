// Fakenode is a test HTTP server used for exercising failover manually.
// It can be told to fail a fraction of requests with a given status and to
// add artificial latency.
//
// Usage:
//
//	go run fakenode.go -port 9200 -fail-rate 0.3 -fail-status 503 -latency 50ms
//
// Run several instances on different ports and point clustertool at them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

func main() {
	port := flag.Int("port", 9200, "port to listen on")
	failRate := flag.Float64("fail-rate", 0, "fraction of requests to fail, 0..1")
	failStatus := flag.Int("fail-status", 503, "status code for failed requests")
	latency := flag.Duration("latency", 0, "artificial delay per request")
	flag.Parse()

	name := fmt.Sprintf("fakenode-%d", *port)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s %s", name, r.Method, r.URL.Path)

		if *latency > 0 {
			time.Sleep(*latency)
		}

		if rand.Float64() < *failRate {
			http.Error(w, "simulated failure", *failStatus)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"node": name,
			"path": r.URL.Path,
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("%s listening on %s (fail-rate %.2f)", name, addr, *failRate)
	log.Fatal(http.ListenAndServe(addr, nil))
}
