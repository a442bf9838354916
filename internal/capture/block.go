// Package capture samples the local host and writes top batch-mode blocks
// that the top parser reads back.
package capture

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
)

// Process is one row of a block.
type Process struct {
	PID     int32
	User    string
	State   string
	CPU     float64
	Mem     float32
	VirtKB  uint64
	ResKB   uint64
	CPUTime time.Duration
	Command string
}

// Block is one top refresh.
type Block struct {
	Time      time.Time
	Uptime    time.Duration
	Load      [3]float64
	CPU       models.CpuSample
	IRQ       float64
	SoftIRQ   float64
	Tasks     int
	Running   int
	Sleeping  int
	Stopped   int
	Zombie    int
	Processes []Process
}

const tableHeader = "    PID USER      PR  NI    VIRT    RES    SHR S  %CPU  %MEM     TIME+ COMMAND"

// WriteBlock writes b in top batch format followed by a blank line.
func WriteBlock(w io.Writer, b Block) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "top - %s up %s,  0 users,  load average: %.2f, %.2f, %.2f\n",
		b.Time.Format("15:04:05"), formatUptime(b.Uptime), b.Load[0], b.Load[1], b.Load[2])
	fmt.Fprintf(bw, "Tasks: %3d total, %3d running, %3d sleeping, %3d stopped, %3d zombie\n",
		b.Tasks, b.Running, b.Sleeping, b.Stopped, b.Zombie)
	c := b.CPU
	fmt.Fprintf(bw, "%%Cpu(s):%5.1f us,%5.1f sy,%5.1f ni,%5.1f id,%5.1f wa,%5.1f hi,%5.1f si,%5.1f st\n",
		c.User, c.System, c.Nice, c.Idle, c.IOWait, b.IRQ, b.SoftIRQ, c.Steal)
	bw.WriteString("\n")
	bw.WriteString(tableHeader + "\n")
	for _, p := range b.Processes {
		fmt.Fprintf(bw, "%7d %-8s  20   0 %7d %6d %6d %s %5.1f %5.1f %9s %s\n",
			p.PID, token(p.User), p.VirtKB, p.ResKB, 0, stateOrUnknown(p.State), p.CPU, p.Mem,
			formatCPUTime(p.CPUTime), commandOrUnknown(p.Command))
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// formatUptime renders "3 days,  4:05" or " 4:05".
func formatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	clock := fmt.Sprintf("%2d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}

// formatCPUTime renders minutes:seconds.hundredths like top's TIME+ column.
func formatCPUTime(d time.Duration) string {
	hundredths := int64(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d.%02d", hundredths/6000, hundredths/100%60, hundredths%100)
}

func token(s string) string {
	s = strings.Join(strings.Fields(s), "_")
	if s == "" {
		return "?"
	}
	return s
}

func commandOrUnknown(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "?"
	}
	return s
}

func stateOrUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s[:1]
}
