package bootstatus

import (
	"fmt"
	"strings"
)

// GenerateMetrics renders a batch of resolution results in Prometheus
// exposition format.
func GenerateMetrics(results []Result) string {
	var sb strings.Builder

	sb.WriteString("# HELP bootstatus_target_reachable Whether the target's system query succeeded (1) or failed (0).\n")
	sb.WriteString("# TYPE bootstatus_target_reachable gauge\n")
	for _, res := range results {
		up := 1
		if res.Err != nil {
			up = 0
		}
		sb.WriteString(fmt.Sprintf("bootstatus_target_reachable{target=\"%s\"} %d\n", escapeQuotes(res.Target), up))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP bootstatus_uptime_seconds Elapsed time between last boot and the target's clock at query time.\n")
	sb.WriteString("# TYPE bootstatus_uptime_seconds gauge\n")
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("bootstatus_uptime_seconds{computer=\"%s\"} %.0f\n", escapeQuotes(res.Record.ComputerName), res.Record.Uptime.Seconds()))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP bootstatus_downtime_seconds Elapsed time between the last normal shutdown and the subsequent boot (0 unless the shutdown was Normal).\n")
	sb.WriteString("# TYPE bootstatus_downtime_seconds gauge\n")
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("bootstatus_downtime_seconds{computer=\"%s\"} %.0f\n", escapeQuotes(res.Record.ComputerName), res.Record.Downtime.Seconds()))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP bootstatus_shutdown_type Last shutdown classification (labels only).\n")
	sb.WriteString("# TYPE bootstatus_shutdown_type gauge\n")
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("bootstatus_shutdown_type{computer=\"%s\",type=\"%s\"} 1\n",
			escapeQuotes(res.Record.ComputerName), res.Record.LastShutdownType))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP bootstatus_last_bootup_timestamp_seconds Last boot time as a Unix timestamp.\n")
	sb.WriteString("# TYPE bootstatus_last_bootup_timestamp_seconds gauge\n")
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("bootstatus_last_bootup_timestamp_seconds{computer=\"%s\"} %d\n", escapeQuotes(res.Record.ComputerName), res.Record.LastBootUpTime.Unix()))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP bootstatus_last_shutdown_timestamp_seconds Most recent shutdown event time as a Unix timestamp (1900-01-01 sentinel when unknown).\n")
	sb.WriteString("# TYPE bootstatus_last_shutdown_timestamp_seconds gauge\n")
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("bootstatus_last_shutdown_timestamp_seconds{computer=\"%s\"} %d\n", escapeQuotes(res.Record.ComputerName), res.Record.LastShutdownTime.Unix()))
	}
	sb.WriteString("\n")

	sb.WriteString("# HELP bootstatus_install_date_timestamp_seconds Operating system install date as a Unix timestamp.\n")
	sb.WriteString("# TYPE bootstatus_install_date_timestamp_seconds gauge\n")
	for _, res := range results {
		if res.Record == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("bootstatus_install_date_timestamp_seconds{computer=\"%s\"} %d\n", escapeQuotes(res.Record.ComputerName), res.Record.InstallDate.Unix()))
	}
	sb.WriteString("\n")

	return sb.String()
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
