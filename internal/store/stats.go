package store

import "go.uber.org/zap"

// Stats aggregates run metadata across every trajectory in the directory.
type Stats struct {
	Trajectories int            `json:"trajectories"`
	ByExitStatus map[string]int `json:"by_exit_status,omitempty"`

	// Average info.model_stats.api_calls over the files that carry it.
	AvgAPICalls     float64 `json:"avg_api_calls,omitempty"`
	APICallsSampled int     `json:"api_calls_sampled,omitempty"`
}

// Stats loads every trajectory and aggregates exit statuses and api-call
// counts. Unreadable files are skipped and logged, they never fail the
// aggregate.
func (s *Store) Stats() (*Stats, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByExitStatus: make(map[string]int)}
	var apiCalls int
	for _, name := range names {
		doc, err := s.Load(name)
		if err != nil {
			s.logger.Warn("skipping unreadable trajectory",
				zap.String("name", name), zap.Error(err))
			continue
		}
		stats.Trajectories++
		if doc.Info == nil {
			continue
		}
		if doc.Info.ExitStatus != "" {
			stats.ByExitStatus[doc.Info.ExitStatus]++
		}
		if ms := doc.Info.ModelStats; ms != nil && ms.APICalls > 0 {
			apiCalls += ms.APICalls
			stats.APICallsSampled++
		}
	}

	if stats.APICallsSampled > 0 {
		stats.AvgAPICalls = float64(apiCalls) / float64(stats.APICallsSampled)
	}
	if len(stats.ByExitStatus) == 0 {
		stats.ByExitStatus = nil
	}
	return stats, nil
}
