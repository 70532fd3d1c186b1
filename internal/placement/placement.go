package placement

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"icloudsort/internal/fileutil"
	"icloudsort/internal/mediakey"
	"icloudsort/internal/reconcile"
	"icloudsort/internal/services"
)

// Action says what the executor should do with a planned destination. The
// set is closed.
type Action int

const (
	// ActionWrite copies the source to a fresh destination.
	ActionWrite Action = iota
	// ActionSkipIdentical means the destination already holds the same bytes.
	// Re-runs land here.
	ActionSkipIdentical
	// ActionSkipDifferent means the destination holds different content. The
	// planner suggests a disambiguated name but never writes one on its own.
	ActionSkipDifferent
)

func (a Action) String() string {
	switch a {
	case ActionWrite:
		return "write"
	case ActionSkipIdentical:
		return "skip-exists-identical"
	case ActionSkipDifferent:
		return "skip-exists-different"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Result is one placement verdict.
type Result struct {
	Destination string
	Action      Action
	// SuggestedName is a free disambiguated filename for the operator when
	// Action is ActionSkipDifferent.
	SuggestedName string
}

// Planner assigns destinations under a single output root. It is safe for
// concurrent use: in-flight claims are tracked so two workers can never plan
// the same destination in one run.
type Planner struct {
	outputRoot  string
	unsortedDir string

	mu      sync.Mutex
	claimed map[string]string
}

func NewPlanner(outputRoot, unsortedDir string) *Planner {
	return &Planner{
		outputRoot:  outputRoot,
		unsortedDir: unsortedDir,
		claimed:     make(map[string]string),
	}
}

// Plan computes the destination for a decision that carries a physical file.
// The output tree is consulted at call time, not pre-scanned, so a tree
// populated by an earlier run yields skip-identical verdicts instead of
// rewrites.
func (p *Planner) Plan(decision reconcile.Decision) (Result, error) {
	entry := decision.Entry
	if entry == nil {
		return Result{}, services.Wrap(services.ErrConflict, "placement", "plan",
			fmt.Sprintf("decision %s carries no file", decision.Key), nil)
	}

	destination := filepath.Join(p.outputRoot, p.relativeDir(decision), entry.Name)

	p.mu.Lock()
	defer p.mu.Unlock()

	if owner, taken := p.claimed[destination]; taken && owner != entry.Path {
		suggested, err := p.freeNameLocked(destination)
		if err != nil {
			return Result{}, err
		}
		return Result{Destination: destination, Action: ActionSkipDifferent, SuggestedName: suggested}, nil
	}

	// No output root means no tree to consult, so every unclaimed
	// destination is a fresh write. Stat'ing the relative path would read
	// whatever happens to sit in the working directory.
	if p.outputRoot == "" {
		p.claimed[destination] = entry.Path
		return Result{Destination: destination, Action: ActionWrite}, nil
	}

	switch _, err := os.Stat(destination); {
	case os.IsNotExist(err):
		p.claimed[destination] = entry.Path
		return Result{Destination: destination, Action: ActionWrite}, nil
	case err != nil:
		return Result{}, services.Wrap(services.ErrFilesystem, "placement", "stat",
			fmt.Sprintf("inspect %s", destination), err)
	}

	same, err := fileutil.SameContent(entry.Path, destination)
	if err != nil {
		return Result{}, services.Wrap(services.ErrFilesystem, "placement", "compare",
			fmt.Sprintf("compare %s with %s", entry.Path, destination), err)
	}
	if same {
		return Result{Destination: destination, Action: ActionSkipIdentical}, nil
	}

	suggested, err := p.freeNameLocked(destination)
	if err != nil {
		return Result{}, err
	}
	return Result{Destination: destination, Action: ActionSkipDifferent, SuggestedName: suggested}, nil
}

// relativeDir picks the date-derived subdirectory, or the unsorted directory
// when no capture timestamp is known.
func (p *Planner) relativeDir(decision reconcile.Decision) string {
	record := decision.Record
	if record == nil || record.Captured.IsZero() {
		return p.unsortedDir
	}
	return filepath.Join(
		fmt.Sprintf("%04d", record.Captured.Year()),
		fmt.Sprintf("%02d", int(record.Captured.Month())),
	)
}

// freeNameLocked probes sequence suffixes until it finds a filename that is
// neither on disk nor claimed by this run. Caller holds the mutex.
func (p *Planner) freeNameLocked(destination string) (string, error) {
	dir := filepath.Dir(destination)
	name := filepath.Base(destination)

	for seq := 1; ; seq++ {
		candidate := mediakey.Disambiguate(name, seq)
		candidatePath := filepath.Join(dir, candidate)
		if _, taken := p.claimed[candidatePath]; taken {
			continue
		}
		if p.outputRoot == "" {
			return candidate, nil
		}
		switch _, err := os.Stat(candidatePath); {
		case os.IsNotExist(err):
			return candidate, nil
		case err != nil:
			return "", services.Wrap(services.ErrFilesystem, "placement", "probe",
				fmt.Sprintf("inspect %s", candidatePath), err)
		}
	}
}
