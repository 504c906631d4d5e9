package stats

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// These are the types of statistics that we can add. The value is the JSON key that will be used for serialization.
type StatType string

const (
	ListScrapes       StatType = "list_scrapes"
	TweetsReturned    StatType = "tweets_returned"
	TweetsKept        StatType = "tweets_kept"
	FilteredByAge     StatType = "filtered_by_age"
	FilteredByLength  StatType = "filtered_by_length"
	ParseErrors       StatType = "parse_errors"
	DuplicatesRemoved StatType = "duplicates_removed"
	ApifyErrors       StatType = "apify_errors"
)

// AddStat is the message sent to the collector goroutine.
type AddStat struct {
	Type  StatType
	RunID string
	Num   uint
}

// Stats is the structure we use to store the statistics
type Stats struct {
	BootTimeUnix      int64                        `json:"boot_time"`
	LastOperationUnix int64                        `json:"last_operation_time"`
	CurrentTimeUnix   int64                        `json:"current_time"`
	Stats             map[string]map[StatType]uint `json:"stats"`
	sync.Mutex
}

// StatsCollector is the object used to collect statistics
type StatsCollector struct {
	Stats *Stats
	Chan  chan AddStat
}

// StartCollector starts a goroutine that listens to a channel for AddStat messages and updates the stats accordingly.
func StartCollector(bufSize uint) *StatsCollector {
	logrus.Info("Starting stats collector")

	s := Stats{
		BootTimeUnix: time.Now().Unix(),
		Stats:        make(map[string]map[StatType]uint),
	}

	ch := make(chan AddStat, bufSize)

	go func(s *Stats, ch chan AddStat) {
		for {
			stat := <-ch
			s.Lock()
			s.LastOperationUnix = time.Now().Unix()
			if _, ok := s.Stats[stat.RunID]; !ok {
				s.Stats[stat.RunID] = make(map[StatType]uint)
			}
			s.Stats[stat.RunID][stat.Type] += stat.Num
			s.Unlock()
			logrus.Debugf("Added %d to stat %s for run %s", stat.Num, stat.Type, stat.RunID)
		}
	}(&s, ch)

	return &StatsCollector{Stats: &s, Chan: ch}
}

// Json returns the current statistics as a JSON byte array
func (s *StatsCollector) Json() ([]byte, error) {
	s.Stats.Lock()
	defer s.Stats.Unlock()
	s.Stats.CurrentTimeUnix = time.Now().Unix()
	return json.Marshal(s.Stats)
}

// Add is a convenience method to add a number to a statistic
func (s *StatsCollector) Add(runID string, typ StatType, num uint) {
	s.Chan <- AddStat{RunID: runID, Type: typ, Num: num}
}
