package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/products-api/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
	Client      *http.Client
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
	Created       int64
	Deleted       int64
}

type operation string

const (
	opList   operation = "list"
	opGet    operation = "get"
	opMiss   operation = "get_missing"
	opCreate operation = "create"
	opDelete operation = "delete"
)

// missingProductID is far above anything the generator creates.
const missingProductID = 2147483000

func profileOperations(profile string) []operation {
	switch strings.ToLower(profile) {
	case "", "mixed":
		return []operation{opList, opGet, opCreate, opGet, opDelete, opList}
	case "read-heavy":
		return []operation{opList, opGet, opGet, opList, opGet, opCreate}
	case "error-heavy":
		return []operation{opMiss, opDelete, opMiss, opCreate, opList}
	default:
		return nil
	}
}

type runner struct {
	cfg      Config
	client   *http.Client
	codeBase int
	codeSeq  atomic.Int64

	mu  sync.Mutex
	ids []uint

	total, failures, s2xx, s4xx, s5xx, created, deleted atomic.Int64
}

// Run drives the product endpoints at cfg.RPS for cfg.Duration and returns
// per-status-class totals.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	ops := profileOperations(cfg.Profile)
	if len(ops) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)>>1|1))
	r := &runner{cfg: cfg, client: client, codeBase: 1_000_000 + rng.IntN(1_000_000)*1000}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	jobs := make(chan operation, cfg.Concurrency*2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for op := range jobs {
				r.do(gctx, op)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				select {
				case jobs <- ops[i%len(ops)]:
				case <-gctx.Done():
					return nil
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{
		TotalRequests: r.total.Load(),
		Failures:      r.failures.Load(),
		Status2xx:     r.s2xx.Load(),
		Status4xx:     r.s4xx.Load(),
		Status5xx:     r.s5xx.Load(),
		Created:       r.created.Load(),
		Deleted:       r.deleted.Load(),
	}, nil
}

func (r *runner) do(ctx context.Context, op operation) {
	switch op {
	case opList:
		r.send(ctx, op, http.MethodGet, "/products", nil, nil)
	case opGet:
		id, ok := r.peekID()
		if !ok {
			r.send(ctx, opList, http.MethodGet, "/products", nil, nil)
			return
		}
		r.send(ctx, op, http.MethodGet, "/products/"+strconv.FormatUint(uint64(id), 10), nil, nil)
	case opMiss:
		r.send(ctx, op, http.MethodGet, "/products/"+strconv.Itoa(missingProductID), nil, nil)
	case opCreate:
		code := r.codeBase + int(r.codeSeq.Add(1))
		body, _ := json.Marshal(map[string]any{
			"ProductCode": code,
			"Name":        "loadgen-" + strconv.Itoa(code),
			"Price":       json.Number("9.99"),
		})
		r.send(ctx, op, http.MethodPost, "/products", body, func(status int, payload []byte) {
			if status != http.StatusCreated {
				return
			}
			var created struct {
				ID uint `json:"Id"`
			}
			if json.Unmarshal(payload, &created) == nil && created.ID != 0 {
				r.pushID(created.ID)
				r.created.Add(1)
			}
		})
	case opDelete:
		id, ok := r.popID()
		if !ok {
			id = missingProductID
		}
		r.send(ctx, op, http.MethodDelete, "/products/"+strconv.FormatUint(uint64(id), 10), nil, func(status int, _ []byte) {
			if status == http.StatusOK {
				r.deleted.Add(1)
			}
		})
	}
}

func (r *runner) send(ctx context.Context, op operation, method, path string, body []byte, onResponse func(int, []byte)) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		r.failures.Add(1)
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			r.failures.Add(1)
			observability.RecordLoadgenRequest(ctx, "transport_error", string(op))
		}
		return
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()

	r.total.Add(1)
	class := statusClass(resp.StatusCode)
	switch class {
	case "2xx":
		r.s2xx.Add(1)
	case "4xx":
		r.s4xx.Add(1)
	case "5xx":
		r.s5xx.Add(1)
	}
	observability.RecordLoadgenRequest(ctx, class, string(op))
	if onResponse != nil {
		onResponse(resp.StatusCode, payload)
	}
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func (r *runner) pushID(id uint) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
}

func (r *runner) peekID() (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ids) == 0 {
		return 0, false
	}
	return r.ids[len(r.ids)-1], true
}

func (r *runner) popID() (uint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ids) == 0 {
		return 0, false
	}
	id := r.ids[0]
	r.ids = r.ids[1:]
	return id, true
}
