package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/valyala/fasthttp"
)

// Small operational probe: hammer the health endpoints of a running
// annotation server and print latency percentiles. Exits non-zero when
// any probe fails so it can gate deploy scripts.
func main() {
	base := flag.String("url", "http://127.0.0.1:8080", "base URL of the annotation server")
	n := flag.Int("n", 20, "probe requests per endpoint")
	timeout := flag.Duration("timeout", 2*time.Second, "per-request timeout")
	flag.Parse()

	c := &fasthttp.Client{Name: "framelabel-probe"}

	ok := true
	for _, path := range []string{"/healthz", "/readyz"} {
		durs, failures := probe(c, *base+path, *n, *timeout)
		report(path, durs, failures)
		if failures > 0 {
			ok = false
		}
	}
	if !ok {
		os.Exit(1)
	}
}

func probe(c *fasthttp.Client, url string, n int, timeout time.Duration) ([]time.Duration, int) {
	durs := make([]time.Duration, 0, n)
	failures := 0
	for i := 0; i < n; i++ {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(url)
		start := time.Now()
		err := c.DoTimeout(req, resp, timeout)
		elapsed := time.Since(start)
		if err != nil || resp.StatusCode() != fasthttp.StatusOK {
			failures++
		} else {
			durs = append(durs, elapsed)
		}
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}
	return durs, failures
}

func report(path string, durs []time.Duration, failures int) {
	if len(durs) == 0 {
		fmt.Printf("%-9s all %d probes failed\n", path, failures)
		return
	}
	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })
	pct := func(p float64) time.Duration {
		return durs[int(p*float64(len(durs)-1))]
	}
	fmt.Printf("%-9s ok=%d failed=%d min=%s p50=%s p95=%s max=%s\n",
		path, len(durs), failures, durs[0], pct(0.50), pct(0.95), durs[len(durs)-1])
}
