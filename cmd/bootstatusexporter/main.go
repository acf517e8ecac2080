package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gysosin/Bootstatus_exporter/internal/bootstatus"
	"github.com/gysosin/Bootstatus_exporter/internal/collectors"
	"github.com/kardianos/service"
	"github.com/nats-io/nats.go"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds runtime configuration read from JSON (optional).
type Config struct {
	Port           string   `json:"port"`
	SystemName     string   `json:"system_name"`
	NatsURL        string   `json:"nats_url"`
	Targets        []string `json:"targets"`
	Username       string   `json:"username"`
	Password       string   `json:"password"`
	Domain         string   `json:"domain"`
	EventLogPolicy string   `json:"eventlog_policy"` // "strict" or "lenient"
	LogFile        string   `json:"log_file"`
}

// Global config
var config Config

// loadConfig reads a JSON configuration file into the config struct.
func loadConfig(filename string) error {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &config)
}

// newResolver wires the platform queriers and the configured policy.
func newResolver() *bootstatus.Resolver {
	system, eventLog := collectors.NewDefaultQueriers()
	return &bootstatus.Resolver{
		System:   system,
		EventLog: eventLog,
		Policy:   parsePolicy(config.EventLogPolicy),
	}
}

// parsePolicy maps the config string onto the resolver policy. Lenient is
// the default: an unreadable event log becomes an Unknown shutdown instead
// of failing the target.
func parsePolicy(s string) bootstatus.EventLogPolicy {
	if strings.EqualFold(s, "strict") {
		return bootstatus.PolicyStrict
	}
	return bootstatus.PolicyLenient
}

// credential returns the configured credential, or nil when none is set.
func credential() *bootstatus.Credential {
	if config.Username == "" {
		return nil
	}
	return &bootstatus.Credential{
		Username: config.Username,
		Password: config.Password,
		Domain:   config.Domain,
	}
}

// targets returns the configured target list, falling back to the local
// hostname when none were given.
func targets() []string {
	if len(config.Targets) > 0 {
		return config.Targets
	}
	hn, err := os.Hostname()
	if err != nil {
		log.Fatalf("No targets configured and unable to get hostname: %v", err)
	}
	return []string{hn}
}

// program implements service.Interface for running as a Windows service.
type program struct {
	Port string
}

// Start is called when the service starts.
func (p *program) Start(s service.Service) error {
	// Run the service asynchronously.
	go p.run()
	return nil
}

// run sets up the /metrics and /records endpoints and listens on p.Port.
func (p *program) run() {
	addr := ":" + p.Port
	log.Printf("Starting HTTP server on %s...", addr)

	resolver := newResolver()
	http.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		results := resolver.ResolveAll(targets(), credential())
		for _, res := range results {
			if res.Err != nil {
				log.Printf("Failed to resolve %s: %v", res.Target, res.Err)
			}
		}
		bootstatus.AddHistory(results)
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(bootstatus.GenerateMetrics(results)))
	})
	http.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(bootstatus.GetHistory())
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// Stop is called when the service stops.
func (p *program) Stop(s service.Service) error {
	log.Println("Service stopping")
	os.Exit(0)
	return nil
}

// pushRecords connects to NATS JetStream and periodically publishes
// boot-status records for the configured targets.
func pushRecords(natsURL string, interval time.Duration) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Drain()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("Failed to get JetStream context: %v", err)
	}

	// Use the fixed subject "bootstatus".
	subject := "bootstatus"
	log.Printf("Starting push to NATS JetStream at subject=%s every=%v", subject, interval)

	// If no system name is specified in config, try to use the hostname.
	if config.SystemName == "" {
		hn, err := os.Hostname()
		if err != nil {
			log.Fatalf("System name not specified and unable to get hostname: %v", err)
		}
		config.SystemName = hn
		log.Printf("No system_name in config; using hostname: %s", config.SystemName)
	}

	resolver := newResolver()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		<-ticker.C
		results := resolver.ResolveAll(targets(), credential())
		bootstatus.AddHistory(results)

		records := make([]*bootstatus.Record, 0, len(results))
		for _, res := range results {
			if res.Err != nil {
				log.Printf("Failed to resolve %s: %v", res.Target, res.Err)
				continue
			}
			records = append(records, res.Record)
		}

		payload := map[string]interface{}{
			"system_name": config.SystemName,
			"records":     records,
		}
		msgPayload, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			log.Printf("Failed to marshal records payload: %v", err)
			continue
		}
		_, err = js.Publish(subject, msgPayload)
		if err != nil {
			log.Printf("Failed to publish records: %v", err)
		} else {
			log.Printf("Published %d records to subject %s", len(records), subject)
		}
	}
}

// resolveOnce resolves every target a single time and prints the outcomes
// as JSON. The exit code reflects whether any target failed.
func resolveOnce() {
	resolver := newResolver()
	results := resolver.ResolveAll(targets(), credential())

	failed := 0
	entries := make([]bootstatus.HistoryEntry, 0, len(results))
	for _, res := range results {
		entry := bootstatus.HistoryEntry{Target: res.Target, ResolvedAt: time.Now(), Record: res.Record}
		if res.Err != nil {
			failed++
			entry.Error = res.Err.Error()
			log.Printf("Failed to resolve %s: %v", res.Target, res.Err)
		}
		entries = append(entries, entry)
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal records: %v", err)
	}
	os.Stdout.Write(append(out, '\n'))

	if failed > 0 {
		os.Exit(1)
	}
}

func main() {
	// Service config for the Windows service.
	svcConfig := &service.Config{
		Name:        "BootstatusExporterService",
		DisplayName: "Bootstatus Exporter Service",
		Description: "Exports boot, uptime and shutdown diagnostics for remote Windows hosts (push mode or scrape).",
	}

	// Flags.
	configFile := flag.String("config", "config.json", "Path to JSON config file")
	svcFlag := flag.String("service", "", "Install/uninstall/start/stop/run the Windows service (example: --service=install)")
	// Basic port override.
	portFlag := flag.String("port", "", "Override port from config.json (e.g. 9183)")
	// Target and credential overrides.
	targetsFlag := flag.String("targets", "", "Comma-separated target computers (overrides config)")
	userFlag := flag.String("username", "", "Username for remote queries (overrides config)")
	passFlag := flag.String("password", "", "Password for remote queries (overrides config)")
	domainFlag := flag.String("domain", "", "Domain for remote queries (overrides config)")
	policyFlag := flag.String("policy", "", "Event log failure policy: strict or lenient (overrides config)")
	logFileFlag := flag.String("log_file", "", "Write logs to this file with rotation (overrides config)")
	// One-shot mode flag.
	onceFlag := flag.Bool("once", false, "Resolve all targets once, print JSON records and exit")
	// NATS push mode flag.
	pushFlag := flag.Bool("push", false, "Enable push mode (publish to NATS JetStream)")
	// nats_url flag (overriding config value if needed).
	natsURLFlag := flag.String("nats_url", "", "NATS server URL")
	pushIntervalFlag := flag.String("push_interval", "60s", "How often to push records, e.g. 30s, 5m")

	flag.Parse()

	// Load the config.
	if err := loadConfig(*configFile); err != nil {
		log.Printf("Could not read config file %s. Using defaults: %v", *configFile, err)
		config.Port = "9183"
		// Do not force a default system name here
		config.SystemName = ""
		config.NatsURL = "nats://127.0.0.1:4222"
	}

	// Override config values from flags if provided.
	if *portFlag != "" {
		config.Port = *portFlag
	}
	if *natsURLFlag != "" {
		config.NatsURL = *natsURLFlag
	}
	if *targetsFlag != "" {
		config.Targets = strings.Split(*targetsFlag, ",")
		for i := range config.Targets {
			config.Targets[i] = strings.TrimSpace(config.Targets[i])
		}
	}
	if *userFlag != "" {
		config.Username = *userFlag
	}
	if *passFlag != "" {
		config.Password = *passFlag
	}
	if *domainFlag != "" {
		config.Domain = *domainFlag
	}
	if *policyFlag != "" {
		config.EventLogPolicy = *policyFlag
	}
	if *logFileFlag != "" {
		config.LogFile = *logFileFlag
	}

	// Send logs to a rotating file if configured.
	if config.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	// Parse the push interval.
	interval, err := time.ParseDuration(*pushIntervalFlag)
	if err != nil {
		log.Printf("Invalid push_interval=%s. Defaulting to 60s", *pushIntervalFlag)
		interval = 60 * time.Second
	}

	// One-shot mode resolves and exits without any server.
	if *onceFlag {
		resolveOnce()
		return
	}

	// If push mode is enabled, run pushRecords.
	if *pushFlag {
		pushRecords(config.NatsURL, interval)
		return
	}

	// If not push mode, run the HTTP endpoint or service.
	prg := &program{Port: config.Port}
	s, err := service.New(prg, svcConfig)
	if err != nil {
		log.Fatalf("Cannot start service: %v", err)
	}

	// Handle service control actions.
	if *svcFlag != "" {
		if err := service.Control(s, *svcFlag); err != nil {
			log.Printf("Valid service actions: install, uninstall, start, stop, run")
			log.Fatal(err)
		}
		log.Printf("Service action '%s' executed successfully.", *svcFlag)
		return
	}

	// Run the HTTP endpoint in the foreground.
	if err := s.Run(); err != nil {
		log.Fatal(err)
	}
}
