package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// StartMockSensor runs a fake sensor whose readings drift over time.
// Roughly one read in eight fails with 500 and one in eight takes longer
// than a tick. Call this in a goroutine before starting the board.
func StartMockSensor(addr string) {
	var (
		mu       sync.Mutex
		temp     = 21.0
		humidity = 48.0
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/read", func(w http.ResponseWriter, r *http.Request) {
		switch rand.Intn(8) {
		case 0:
			http.Error(w, "sensor busy", http.StatusInternalServerError)
			return
		case 1:
			// overlaps the next tick
			time.Sleep(time.Duration(2600+rand.Intn(1000)) * time.Millisecond)
		default:
			time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)
		}

		mu.Lock()
		temp += (rand.Float64() - 0.5) * 0.3
		humidity += (rand.Float64() - 0.5) * 1.2
		t, h := temp, humidity
		mu.Unlock()

		fmt.Fprintf(w, "%.1fC / %.0f%%", t, h)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock sensor error", "error", err)
	}
}
