// Command probe verifies and fingerprints a single domain and prints
// the outcome. Useful for checking what the pipeline would observe for
// one site before running a whole batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/amosroger91/prospector/internal/app"
	"github.com/amosroger91/prospector/internal/config"
	"github.com/amosroger91/prospector/pkg/logger"
)

func main() {
	domain := flag.String("domain", "", "domain to verify, e.g. example.com")
	name := flag.String("name", "", "business name used to derive domains when -domain is empty")
	flag.Parse()

	if *domain == "" && *name == "" {
		fmt.Fprintln(os.Stderr, "usage: probe -domain example.com | probe -name \"Business Name\"")
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		os.Exit(1)
	}
	_ = logger.SetLevelString("warn")

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	resolver := app.NewResolver(cfg)
	verdict := resolver.Verify(ctx, *domain, *name)

	fmt.Printf("domain:        %s\n", verdict.Domain)
	fmt.Printf("dns_resolved:  %v\n", verdict.DNSResolved)
	fmt.Printf("http_reachable: %v\n", verdict.HTTPReachable)
	if verdict.HTTPStatus != 0 {
		fmt.Printf("http_status:   %d\n", verdict.HTTPStatus)
	}
	fmt.Printf("latency:       %s\n", verdict.Latency)
	if verdict.FailureReason != "" {
		fmt.Printf("failure:       %s\n", verdict.FailureReason)
		os.Exit(1)
	}

	fp := app.NewFingerprinter(cfg).Fingerprint(ctx, verdict)
	fmt.Printf("server:        %s\n", orNone(fp.ServerBanner))
	fmt.Printf("cms:           %s\n", fp.DetectedCMS)
	if fp.CMSVersion != "" {
		fmt.Printf("cms_version:   %s\n", fp.CMSVersion)
	}
	fmt.Printf("sec_headers:   %d %v\n", len(fp.SecurityHeaders), fp.SecurityHeaders)
	if fp.PluginProbeRan {
		fmt.Printf("vuln_plugins:  %d\n", fp.VulnerablePluginCount)
	}

	score := app.NewEngine(cfg).Score(fp)
	fmt.Printf("score:         %d (%s)\n", score.TotalScore, score.Recommendation)
	for _, adj := range score.Adjustments {
		fmt.Printf("  %+d  %s\n", adj.Delta, adj.Reason)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
