package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/witanlabs/marksheet/config"
	"github.com/witanlabs/marksheet/internal/evaluation"
	"github.com/witanlabs/marksheet/internal/report"
)

var (
	serveAddr    string
	serveTotal   totalValue
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve live report cards and progress while marking",
	Long: `Serve the report cards of a local spreadsheet over HTTP. Every request
re-reads the file, so the page reflects the last save.

Endpoints:
  GET /          report cards (HTML)
  GET /stats     class statistics (JSON)
  GET /progress  marking progress (JSON)
  GET /ws        websocket pushing {"done", "modified"} when the file changes

Examples:
  marksheet serve notes.xlsx
  marksheet serve notes.xlsx --addr 127.0.0.1:9000 --total 20`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().VarP(&serveTotal, "total", "t", "Desired total marks")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "Origins allowed to fetch the JSON endpoints (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	if isURL(args[0]) {
		return fmt.Errorf("serve needs a local file, got URL %s", args[0])
	}
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	s := &server{path: args[0], cfg: cfg, target: serveTotal.target(), origins: serveOrigins, log: log}
	httpSrv := &http.Server{
		Addr:              serveAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Serving %s on http://%s\n", args[0], serveAddr)
	log.Info().Str("addr", serveAddr).Str("path", args[0]).Msg("listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type server struct {
	path    string
	cfg     config.Config
	target  float64
	origins []string
	log     zerolog.Logger
}

type liveUpdate struct {
	Done     float64   `json:"done"`
	Modified time.Time `json:"modified"`
	Error    string    `json:"error,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/", s.handleReport)
	r.Get("/stats", s.handleStats)
	r.Get("/progress", s.handleProgress)
	r.Get("/ws", s.handleWS)
	return r
}

// loggingMiddleware logs HTTP requests
func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *server) load() (*evaluation.Evaluation, error) {
	ev, _, err := loadEvaluation(s.path, s.cfg, s.target, s.log)
	return ev, err
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	ev, err := s.load()
	if err != nil {
		s.fail(w, err)
		return
	}
	doc := report.NewDocument(inputStem(s.path), ev, s.cfg.Style())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rr := report.Renderer{Format: report.Markup, Style: s.cfg.Style()}
	if err := rr.Individual(w, doc); err != nil {
		s.log.Warn().Err(err).Msg("writing report")
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	ev, err := s.load()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, report.Describe(ev))
}

func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ev, err := s.load()
	if err != nil {
		s.fail(w, err)
		return
	}
	pct, err := evaluation.Progress(ev)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, progressResult{Done: evaluation.Round(pct, 2)})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originHosts(s.origins)})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer c.CloseNow()

	ctx := c.CloseRead(r.Context())
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	var last time.Time
	for {
		if fi, err := os.Stat(s.path); err == nil && !fi.ModTime().Equal(last) {
			last = fi.ModTime()
			if err := wsjson.Write(ctx, c, s.snapshot(last)); err != nil {
				s.log.Debug().Err(err).Msg("websocket write")
				return
			}
		}
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}

// originHosts turns CORS origins into the host patterns the websocket
// handshake checks.
func originHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		if o == "*" {
			hosts = append(hosts, "*")
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

func (s *server) snapshot(modified time.Time) liveUpdate {
	u := liveUpdate{Modified: modified}
	ev, err := s.load()
	if err == nil {
		u.Done, err = evaluation.Progress(ev)
		u.Done = evaluation.Round(u.Done, 2)
	}
	if err != nil {
		u.Error = err.Error()
	}
	return u
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("writing response")
	}
}

func (s *server) fail(w http.ResponseWriter, err error) {
	s.log.Warn().Err(err).Str("path", s.path).Msg("loading spreadsheet")
	http.Error(w, err.Error(), http.StatusUnprocessableEntity)
}
