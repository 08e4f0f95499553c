// README: Smoke/bench test cases: environment, migration, quote engine, session lifecycle, and performance checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "Redis reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "check tables from migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: health",
			Focus: "server reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		// Quote engine over HTTP.
		httpGetCase("Quote: daytime pickup", base+"/api/quote?service_id=svc&vehicle_type_id=v1&pickup_time=14:00", []int{200}),
		httpGetCase("Quote: midnight window pickup", base+"/api/quote?service_id=svc&vehicle_type_id=v1&pickup_time=23:30", []int{200}),
		httpGetCase("Quote: stops on both legs", base+"/api/quote?service_id=svc&vehicle_type_id=v1&pickup_stops=3&dropoff_stops=2", []int{200}),
		httpGetCase("Quote: stop count over limit -> 400", base+"/api/quote?pickup_stops=6", []int{400}),
		httpGetCase("Quote: negative stop count -> 400", base+"/api/quote?dropoff_stops=-1", []int{400}),

		{
			Name:  "Quote: deterministic recompute",
			Focus: "same input, byte-identical response",
			Run: func(ctx context.Context, r *Runner) Result {
				return quoteDeterminism(ctx, r, base+"/api/quote?service_id=svc&vehicle_type_id=v1&pickup_time=23:30&pickup_stops=2")
			},
		},
		{
			Name:  "Session: full lifecycle",
			Focus: "create, edit, add/remove stop, save, cancel",
			Run:   sessionLifecycle(base),
		},
		{
			Name:  "Session: concurrent edits survive",
			Focus: "parallel PATCHes never 5xx",
			Run:   concurrentEdits(base),
		},

		// Performance
		{
			Name:  "Perf: quote throughput",
			Focus: "sustained quote requests",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, base+"/api/quote?service_id=svc&vehicle_type_id=v1&pickup_time=23:30", nil)
			},
		},
		{
			Name:  "Perf: session create throughput",
			Focus: "sustained session creation",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPost, base+"/api/sessions", map[string]any{})
			},
		},
	}
}

func httpGetCase(name, url string, okStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)
			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

// quoteDeterminism fetches the same quote several times and requires the raw
// bodies to match exactly.
func quoteDeterminism(ctx context.Context, r *Runner, url string) Result {
	var first []byte
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := r.httpc.Do(req)
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if resp.StatusCode != http.StatusOK {
			return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		}
		if first == nil {
			first = body
			continue
		}
		if !bytes.Equal(first, body) {
			return Result{Status: "FAIL", Note: fmt.Sprintf("response drift on pass %d", i+1)}
		}
	}
	return Result{Status: "PASS"}
}

func sessionLifecycle(base string) func(ctx context.Context, r *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		start := time.Now()

		id, res := createSession(ctx, r, base)
		if res != nil {
			return *res
		}
		defer func() {
			req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, base+"/api/sessions/"+id, nil)
			if resp, err := r.httpc.Do(req); err == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}()

		steps := []struct {
			name   string
			method string
			url    string
			body   map[string]any
			ok     []int
		}{
			{"patch identity", http.MethodPatch, base + "/api/sessions/" + id, map[string]any{
				"service_id": "svc", "service_name": "Airport Transfer", "vehicle_type_id": "v1", "pickup_time": "23:30",
			}, []int{200}},
			{"patch manual price", http.MethodPatch, base + "/api/sessions/" + id, map[string]any{
				"base_price": 12000,
			}, []int{200}},
			{"add stop", http.MethodPost, base + "/api/sessions/" + id + "/stops", map[string]any{
				"leg": "pickup", "location": "Warehouse B",
			}, []int{200}},
			{"remove stop", http.MethodDelete, base + "/api/sessions/" + id + "/stops/pickup/0", nil, []int{200}},
			{"save", http.MethodPost, base + "/api/sessions/" + id + "/save", nil, []int{200}},
		}
		for _, st := range steps {
			status, err := doJSON(ctx, r, st.method, st.url, st.body)
			if err != nil {
				return Result{Status: "FAIL", Note: st.name + ": " + err.Error()}
			}
			if !contains(st.ok, status) {
				return Result{Status: "FAIL", Note: fmt.Sprintf("%s: status=%d", st.name, status)}
			}
		}
		return Result{Status: "PASS", Latency: time.Since(start)}
	}
}

func concurrentEdits(base string) func(ctx context.Context, r *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		id, res := createSession(ctx, r, base)
		if res != nil {
			return *res
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		serverErrs := 0
		for i := 0; i < r.cfg.Concurrency; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				status, err := doJSON(ctx, r, http.MethodPatch, base+"/api/sessions/"+id, map[string]any{
					"base_price": 1000 + i,
				})
				mu.Lock()
				if err != nil || status >= 500 {
					serverErrs++
				}
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		if serverErrs > 0 {
			return Result{Status: "FAIL", Note: fmt.Sprintf("server errors=%d", serverErrs)}
		}
		return Result{Status: "PASS"}
	}
}

func createSession(ctx context.Context, r *Runner, base string) (string, *Result) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/sessions", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", &Result{Status: "FAIL", Note: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return "", &Result{Status: "FAIL", Note: fmt.Sprintf("create: status=%d", resp.StatusCode)}
	}
	var payload struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &Result{Status: "FAIL", Note: "create: " + err.Error()}
	}
	if payload.Session.ID == "" {
		return "", &Result{Status: "FAIL", Note: "create: empty session id"}
	}
	return payload.Session.ID, nil
}

func doJSON(ctx context.Context, r *Runner, method, url string, body map[string]any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode, nil
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	var b []byte
	if payload != nil {
		b, _ = json.Marshal(payload)
	}
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				var reader io.Reader
				if b != nil {
					reader = bytes.NewReader(b)
				}
				req, _ := http.NewRequestWithContext(ctx, method, url, reader)
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
