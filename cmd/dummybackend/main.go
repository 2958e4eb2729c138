// Command dummybackend is a minimal fixture upstream used for local
// development and demos against the balancer: it echoes the inbound
// request id and answers health probes with a fixed 200 response.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	port := pflag.IntP("port", "p", 8000, "port to listen on")
	pflag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PONG"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		log.Printf("request received method=%s path=%s request_id=%s", r.Method, r.URL.Path, requestID)
		w.Header().Set("x-request-id", requestID)
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok from %s\n", addr(*port))
	})

	listenAddr := fmt.Sprintf(":%d", *port)
	log.Printf("dummy backend listening on %s", listenAddr)
	if err := http.ListenAndServe(listenAddr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
