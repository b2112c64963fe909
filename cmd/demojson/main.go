/*

demojson parses a single demo file and writes one JSON object describing
it to stdout: the fixed header, the compiled schema's server-class
names, and (depending on flags) a full message-type histogram and/or a
match-state summary. Flag handling and exit-code convention mirror
icza-screp/cmd/screp's CLI, restructured onto spf13/cobra per
saferwall-pe/cmd/pedumper.go's command shape.

*/
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/icza/demorec/demo/analyser"
	"github.com/icza/demorec/demo/header"
	"github.com/icza/demorec/demo/metrics"
	"github.com/icza/demorec/demo/parser"
	"github.com/icza/demorec/democodec"
)

const exitFailedToParse = 1

var (
	all               bool
	detailedSummaries bool
	metricsAddr       string
)

// output is the JSON shape written to stdout.
type output struct {
	Header        *header.Header             `json:"header"`
	ServerClasses []string                   `json:"serverClasses,omitempty"`
	MessageCounts map[int]int                `json:"messageCounts,omitempty"`
	MatchState    *analyser.MatchStateOutput `json:"matchState,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	var collector *metrics.Collector
	if metricsAddr != "" {
		collector = metrics.NewCollector()
		if err := collector.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		go serveMetrics(metricsAddr)
	}

	demo, err := democodec.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer demo.Close()

	cfg := parser.Config{Metrics: collector}

	out := output{}

	switch {
	case all && detailedSummaries:
		combined := parser.NewCombine[map[int]int, analyser.MatchStateOutput](
			analyser.NewAllMessage(), analyser.NewMatchState())
		hdr, res, err := parser.ParseConfig[parser.Pair[map[int]int, analyser.MatchStateOutput]](
			demo.Stream(), combined, cfg)
		if err != nil {
			return err
		}
		out.Header = hdr
		out.MessageCounts = res.First
		out.MatchState = &res.Second

	case all:
		hdr, counts, err := parser.ParseConfig[map[int]int](demo.Stream(), analyser.NewAllMessage(), cfg)
		if err != nil {
			return err
		}
		out.Header = hdr
		out.MessageCounts = counts

	case detailedSummaries:
		hdr, state, err := parser.ParseConfig[analyser.MatchStateOutput](demo.Stream(), analyser.NewMatchState(), cfg)
		if err != nil {
			return err
		}
		out.Header = hdr
		out.MatchState = &state

	default:
		hdr, p, err := parseSchemaOnly(demo, cfg)
		if err != nil {
			return err
		}
		out.Header = hdr
		out.ServerClasses = p
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parseSchemaOnly runs the default analyzer and reports back the
// compiled server-class names, since parser.DefaultHandler's own output
// is the empty struct.
func parseSchemaOnly(demo *democodec.Demo, cfg parser.Config) (*header.Header, []string, error) {
	p := parser.NewConfig[struct{}](demo.Stream(), analyser.Default{}, cfg)
	hdr, _, err := p.Parse()
	if err != nil {
		return hdr, nil, err
	}

	var names []string
	for _, c := range p.State().ServerClasses {
		names = append(names, c.Name)
	}
	return hdr, names, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(addr, mux)
}

func main() {
	root := &cobra.Command{
		Use:   "demojson [flags] <path.dem>",
		Short: "Dump a Source-engine demo file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	root.Flags().BoolVar(&all, "all", false, "include a full message-type histogram")
	root.Flags().BoolVar(&detailedSummaries, "detailed-summaries", false, "include a match-state summary (roster, event histogram)")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "optional address to serve a Prometheus /metrics endpoint on (long-running batch use)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailedToParse)
	}
}
