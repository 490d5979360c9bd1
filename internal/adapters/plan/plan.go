// Package plan loads batch-send assignment plans from YAML files.
//
//	message: "hello"
//	delay: 2s
//	assignments:
//	  - account: "+15551234"
//	    targets: ["@alice", "@bob"]
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	yaml "go.yaml.in/yaml/v3"
)

type Plan struct {
	Payload     domain.Payload
	Delay       time.Duration
	HasDelay    bool
	Assignments []domain.Assignment
}

type fileSchema struct {
	Message     string             `yaml:"message"`
	File        string             `yaml:"file"`
	Voice       bool               `yaml:"voice"`
	Delay       string             `yaml:"delay"`
	Assignments []assignmentSchema `yaml:"assignments"`
}

type assignmentSchema struct {
	Account string   `yaml:"account"`
	Targets []string `yaml:"targets"`
}

func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan strictly: unknown keys are rejected. Assignments for
// the same account are merged in file order.
func Parse(data []byte) (Plan, error) {
	var file fileSchema
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}

	out := Plan{Payload: domain.Payload{Text: file.Message, FilePath: file.File, Voice: file.Voice}}
	if strings.TrimSpace(file.Delay) != "" {
		delay, err := time.ParseDuration(strings.TrimSpace(file.Delay))
		if err != nil {
			return Plan{}, fmt.Errorf("plan delay: %w", err)
		}
		if delay < 0 {
			return Plan{}, fmt.Errorf("plan delay must not be negative: %s", delay)
		}
		out.Delay = delay
		out.HasDelay = true
	}

	index := map[domain.Phone]int{}
	for i, entry := range file.Assignments {
		phone, err := domain.NormalizePhone(entry.Account)
		if err != nil {
			return Plan{}, fmt.Errorf("assignment %d: %w", i+1, err)
		}
		targets := domain.NormalizeTargets(entry.Targets)
		if pos, ok := index[phone]; ok {
			out.Assignments[pos].Targets = append(out.Assignments[pos].Targets, targets...)
			continue
		}
		index[phone] = len(out.Assignments)
		out.Assignments = append(out.Assignments, domain.Assignment{Phone: phone, Targets: targets})
	}

	if len(out.Assignments) == 0 {
		return Plan{}, domain.ErrNoAccountsSelected
	}

	return out, nil
}
