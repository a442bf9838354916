package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/rsvihladremio/dqd-sub002/internal/models"
	"github.com/rsvihladremio/dqd-sub002/internal/topk"
)

// Sampler produces blocks from successive readings. CPU percentages are
// deltas against the previous call, so the first block after NewSampler
// reports idle processes.
type Sampler struct {
	prev   cpu.TimesStat
	primed bool
	procs  map[int32]*process.Process
	now    func() time.Time
}

func NewSampler() *Sampler {
	return &Sampler{procs: make(map[int32]*process.Process), now: time.Now}
}

// Sample reads the host and keeps the limit busiest processes.
func (s *Sampler) Sample(ctx context.Context, limit int) (Block, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return Block{}, fmt.Errorf("failed to read cpu times: %w", err)
	}
	if len(times) == 0 {
		return Block{}, fmt.Errorf("failed to read cpu times: no aggregate reported")
	}

	b := Block{Time: s.now()}
	if s.primed {
		b.CPU, b.IRQ, b.SoftIRQ = breakdown(s.prev, times[0])
	} else {
		b.CPU.Idle = 100
	}
	b.CPU.Time = b.Time
	s.prev = times[0]
	s.primed = true

	if up, err := host.UptimeWithContext(ctx); err == nil {
		b.Uptime = time.Duration(up) * time.Second
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		b.Load = [3]float64{avg.Load1, avg.Load5, avg.Load15}
	}

	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return Block{}, fmt.Errorf("failed to list processes: %w", err)
	}
	alive := make(map[int32]*process.Process, len(pids))
	window := topk.New(limit, func(a, b Process) bool { return a.CPU > b.CPU })
	for _, pid := range pids {
		p, ok := s.procs[pid]
		if !ok {
			if p, err = process.NewProcessWithContext(ctx, pid); err != nil {
				continue
			}
		}
		alive[pid] = p

		row, ok := readProcess(ctx, p)
		if !ok {
			continue
		}
		b.Tasks++
		switch row.State {
		case "R":
			b.Running++
		case "T":
			b.Stopped++
		case "Z":
			b.Zombie++
		default:
			b.Sleeping++
		}
		window.Offer(row)
	}
	s.procs = alive
	b.Processes = window.Export(topk.Best)
	return b, nil
}

func readProcess(ctx context.Context, p *process.Process) (Process, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return Process{}, false
	}
	row := Process{PID: p.Pid, Command: name}
	if pct, err := p.PercentWithContext(ctx, 0); err == nil {
		row.CPU = pct
	}
	if pct, err := p.MemoryPercentWithContext(ctx); err == nil {
		row.Mem = pct
	}
	if user, err := p.UsernameWithContext(ctx); err == nil {
		row.User = user
	}
	if status, err := p.StatusWithContext(ctx); err == nil && len(status) > 0 {
		row.State = stateLetter(status[0])
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
		row.VirtKB = mem.VMS / 1024
		row.ResKB = mem.RSS / 1024
	}
	if t, err := p.TimesWithContext(ctx); err == nil {
		row.CPUTime = time.Duration((t.User + t.System) * float64(time.Second))
	}
	return row, true
}

func stateLetter(status string) string {
	switch status {
	case process.Running:
		return "R"
	case process.Sleep:
		return "S"
	case process.Stop:
		return "T"
	case process.Idle:
		return "I"
	case process.Zombie:
		return "Z"
	case process.Wait:
		return "D"
	case process.Lock:
		return "L"
	default:
		return "?"
	}
}

// breakdown converts two cumulative readings into percentages of the
// elapsed interval.
func breakdown(prev, cur cpu.TimesStat) (models.CpuSample, float64, float64) {
	total := sum(cur) - sum(prev)
	if total <= 0 {
		return models.CpuSample{Idle: 100}, 0, 0
	}
	pct := func(a, b float64) float64 { return max(0, 100*(a-b)/total) }
	return models.CpuSample{
		User:   pct(cur.User, prev.User),
		System: pct(cur.System, prev.System),
		Nice:   pct(cur.Nice, prev.Nice),
		Idle:   pct(cur.Idle, prev.Idle),
		IOWait: pct(cur.Iowait, prev.Iowait),
		Steal:  pct(cur.Steal, prev.Steal),
	}, pct(cur.Irq, prev.Irq), pct(cur.Softirq, prev.Softirq)
}

func sum(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Nice + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}

type Options struct {
	Interval   time.Duration
	Iterations int
	Processes  int
}

// Run writes one block per interval until Iterations blocks have been
// written or ctx is done. Iterations <= 0 runs until ctx is done.
func Run(ctx context.Context, w io.Writer, opts Options, logger *slog.Logger) error {
	s := NewSampler()
	if _, err := s.Sample(ctx, 0); err != nil {
		return err
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	for written := 0; opts.Iterations <= 0 || written < opts.Iterations; written++ {
		select {
		case <-ctx.Done():
			logger.Info("Capture stopped", "blocks", written)
			return nil
		case <-ticker.C:
		}
		b, err := s.Sample(ctx, opts.Processes)
		if err != nil {
			return err
		}
		if err := WriteBlock(w, b); err != nil {
			return fmt.Errorf("failed to write block: %w", err)
		}
		logger.Debug("Captured block", "time", b.Time.Format("15:04:05"), "processes", len(b.Processes))
	}
	return nil
}
