package health

import "fmt"

// SchedulerCheck reports the frame scheduler state. A stopped scheduler is
// degraded because the view no longer animates; idle is fine for static
// layouts.
func SchedulerCheck(state func() string) CheckFunc {
	return func() Check {
		s := state()
		check := Check{
			Name:    "scheduler",
			Status:  StatusHealthy,
			Details: map[string]any{"state": s},
		}
		if s == "stopped" {
			check.Status = StatusDegraded
			check.Message = "animation stopped"
		}
		return check
	}
}

// ImageCheck reports photo loading. The check degrades once at least half of
// the finished loads failed.
func ImageCheck(counts func() (loaded, failed, loading int)) CheckFunc {
	return func() Check {
		loaded, failed, loading := counts()
		check := Check{
			Name:   "images",
			Status: StatusHealthy,
			Details: map[string]any{
				"loaded":  loaded,
				"failed":  failed,
				"loading": loading,
			},
		}
		if failed > 0 && failed >= loaded {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d of %d photos failed", failed, failed+loaded)
		}
		return check
	}
}

// SnapshotCheck reports the active snapshot. A snapshot without groups is
// valid but degraded.
func SnapshotCheck(snapshot func() (generation string, groups int)) CheckFunc {
	return func() Check {
		gen, groups := snapshot()
		check := Check{
			Name:    "snapshot",
			Status:  StatusHealthy,
			Details: map[string]any{"generation": gen, "groups": groups},
		}
		switch {
		case gen == "":
			check.Status = StatusUnhealthy
			check.Message = "no snapshot loaded"
		case groups == 0:
			check.Status = StatusDegraded
			check.Message = "snapshot has no groups"
		}
		return check
	}
}
