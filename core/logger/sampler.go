package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// defaultDebugSample keeps one out of every fifty sampled debug events.
var defaultDebugSample = sampleRate{keep: 1, every: 50}

type sampleRate struct {
	keep, every uint64
}

// sampler passes keep out of every events. A nil rate passes everything.
type sampler struct {
	rate atomic.Pointer[sampleRate]
	seq  atomic.Uint64
}

func (s *sampler) Set(r *sampleRate) {
	s.rate.Store(r)
	s.seq.Store(0)
}

func (s *sampler) Allow() bool {
	r := s.rate.Load()
	if r == nil {
		return true
	}
	return (s.seq.Add(1)-1)%r.every < r.keep
}

// parseSampleRate reads "keep/every" or "every". "all", "off" and "0" turn
// sampling off; anything unparsable selects the default rate.
func parseSampleRate(spec string) *sampleRate {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch spec {
	case "":
		r := defaultDebugSample
		return &r
	case "all", "off", "0":
		return nil
	}
	keepStr, everyStr, found := strings.Cut(spec, "/")
	if !found {
		keepStr, everyStr = "1", spec
	}
	keep, err1 := strconv.ParseUint(strings.TrimSpace(keepStr), 10, 32)
	every, err2 := strconv.ParseUint(strings.TrimSpace(everyStr), 10, 32)
	if err1 != nil || err2 != nil || keep == 0 || every == 0 {
		r := defaultDebugSample
		return &r
	}
	if keep >= every {
		return nil
	}
	return &sampleRate{keep: keep, every: every}
}
