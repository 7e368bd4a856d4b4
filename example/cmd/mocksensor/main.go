// Standalone mock sensor for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mocksensor
//
// Then in another terminal:
//
//	go run ./cmd/sensorboard serve -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

// climate is a slowly drifting temperature/humidity pair.
type climate struct {
	mu       sync.Mutex
	temp     float64
	humidity float64
}

func (c *climate) step() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temp += (rand.Float64() - 0.5) * 0.4
	c.humidity += (rand.Float64() - 0.5) * 1.5
	if c.humidity < 20 {
		c.humidity = 20
	}
	if c.humidity > 95 {
		c.humidity = 95
	}
	return c.temp, c.humidity
}

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	failRate := flag.Float64("fail-rate", 0.1, "fraction of reads answered with 500")
	slowRate := flag.Float64("slow-rate", 0.1, "fraction of reads delayed past the tick period")
	flag.Parse()

	fmt.Printf("Mock sensor starting on %s\n", *addr)
	fmt.Println("GET /read returns a temperature/humidity fragment")
	fmt.Printf("%.0f%% of reads fail with 500, %.0f%% take 3-6s\n", *failRate*100, *slowRate*100)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	c := &climate{temp: 22.5, humidity: 55}

	http.HandleFunc("/read", func(w http.ResponseWriter, r *http.Request) {
		roll := rand.Float64()
		switch {
		case roll < *failRate:
			slog.Info("answering with 500")
			http.Error(w, "sensor busy", http.StatusInternalServerError)
			return
		case roll < *failRate+*slowRate:
			delay := time.Duration(3000+rand.Intn(3000)) * time.Millisecond
			slog.Info("slow read", "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		default:
			time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)
		}

		temp, hum := c.step()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<b>%.1fC</b> / %.0f%%<br><small>%s</small>",
			temp, hum, time.Now().Format("15:04:05"))
	})

	if err := http.ListenAndServe(*addr, nil); err != nil {
		slog.Error("mock sensor error", "error", err)
		os.Exit(1)
	}
}
