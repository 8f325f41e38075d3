package domain

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Job is one posting handed off after a run terminates.
type Job struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// JobList is the JSON shape the formatter node asks the model to produce.
type JobList struct {
	Jobs []Job `json:"jobs" yaml:"jobs"`
}

// ErrNoJobs is returned by ParseJobs when text holds no recognizable posting.
var ErrNoJobs = errors.New("no job entries found")

var linkPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// separators commonly printed between a job title and its link.
const titleTrim = " \t-–—:|,;*•>[]()"

// ParseJobs extracts postings from a formatter reply or raw listing text.
// The JSON JobList shape is tried first (code fences tolerated), then one
// "title - link" entry per line.
func ParseJobs(text string) ([]Job, error) {
	if jobs, ok := parseJobJSON(text); ok {
		if len(jobs) == 0 {
			return nil, ErrNoJobs
		}
		return jobs, nil
	}
	jobs, _ := ParseJobLines(text)
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	return jobs, nil
}

// ParseJobLines scans text line by line. It returns the entries carrying both a title
// and an application link, and the number of other non-empty lines.
func ParseJobLines(text string) (jobs []Job, other int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		job, ok := parseJobLine(line)
		if !ok {
			other++
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, other
}

func parseJobLine(line string) (Job, bool) {
	loc := linkPattern.FindStringIndex(line)
	if loc == nil {
		return Job{}, false
	}
	url := strings.TrimRight(line[loc[0]:loc[1]], ".,;")
	name := strings.Trim(line[:loc[0]], titleTrim)
	if name == "" {
		// "link - title" ordering
		name = strings.Trim(line[loc[1]:], titleTrim)
	}
	if name == "" {
		return Job{}, false
	}
	return Job{Name: name, URL: url}, true
}

func parseJobJSON(text string) ([]Job, bool) {
	body := StripCodeFence(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var list JobList
	if err := json.Unmarshal([]byte(body[start:end+1]), &list); err != nil {
		return nil, false
	}
	out := make([]Job, 0, len(list.Jobs))
	for _, j := range list.Jobs {
		j.Name = strings.TrimSpace(j.Name)
		j.URL = strings.TrimSpace(j.URL)
		if j.Name == "" || j.URL == "" {
			continue
		}
		out = append(out, j)
	}
	return out, true
}

// StripCodeFence removes a surrounding markdown code fence (```lang ... ```), if any.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.Index(trimmed, "\n"); nl >= 0 {
		trimmed = trimmed[nl+1:]
	} else {
		trimmed = ""
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
