// Command livebind-demo serves a keyed list rendered with livebind and kept
// live over a websocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/livefir/livebind"
	"github.com/livefir/livebind/internal/config"
	"github.com/livefir/livebind/internal/live"
)

const indexPage = `<!DOCTYPE html>
<html>
<head><title>livebind demo</title></head>
<body>
<div id="app"></div>
<form id="add"><input name="name"><input name="at" type="number" min="0" placeholder="at"><button>add</button></form>
<form id="swap"><input name="from" type="number" min="0" value="0"><input name="to" type="number" min="0" value="1"><button>swap</button></form>
<button id="reverse">reverse</button>
<script>
const app = document.getElementById("app");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/live");
ws.onmessage = (e) => {
  const frame = JSON.parse(e.data);
  app.innerHTML = frame.html;
  if (!frame.meta.success) console.warn(frame.meta.errors);
};
const send = (action, data) => ws.send(JSON.stringify({action, data}));
document.getElementById("add").onsubmit = (e) => {
  e.preventDefault();
  const data = {name: e.target.name.value};
  if (e.target.at.value !== "") data.at = Number(e.target.at.value);
  send("add", data);
  e.target.reset();
};
document.getElementById("swap").onsubmit = (e) => {
  e.preventDefault();
  send("swap", {from: Number(e.target.from.value), to: Number(e.target.to.value)});
};
document.getElementById("reverse").onclick = () => send("reverse", {});
app.onclick = (e) => {
  const li = e.target.closest("li");
  if (li) send("remove", {name: li.dataset.key});
};
</script>
</body>
</html>
`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := livebind.NewMetrics()
	http.Handle("/", newMux(ctx, cfg, logger, metrics))

	logger.Info("server starting", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

// metricsResponse is the /metrics payload: render counters plus the number of
// times each action was received.
type metricsResponse struct {
	livebind.RenderMetrics
	FastPathRate float64          `json:"fast_path_rate"`
	Actions      map[string]int64 `json:"actions"`
}

// newMux wires the demo routes. Idle websocket sessions are swept until ctx
// is done.
func newMux(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *livebind.Metrics) *http.ServeMux {
	validate := validator.New()

	handler := live.NewHandler(func() live.Component {
		return newListComponent("livebind demo", cfg.Items, validate)
	},
		live.WithLogger(logger),
		live.WithMetrics(metrics),
		live.WithMinify(cfg.Minify))
	go handler.SweepIdle(ctx, cfg.IdleTimeout)

	mux := http.NewServeMux()
	mux.Handle("/live", handler)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			metrics.Reset()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		resp := metricsResponse{
			RenderMetrics: metrics.GetMetrics(),
			FastPathRate:  metrics.GetFastPathRate(),
			Actions:       metrics.GetCustomCounters(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warn("failed to encode metrics", zap.Error(err))
		}
	})
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(handler.Sessions().List()); err != nil {
			logger.Warn("failed to encode sessions", zap.Error(err))
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexPage)
	})
	return mux
}
